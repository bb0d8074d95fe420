package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aman1195/helium/config"
)

func testChunker(size, overlap, minSize int) *Chunker {
	return NewChunker(config.RAGConfig{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		MinChunkSize: minSize,
	}, nil)
}

func TestChunker_ShortInputSingleChunk(t *testing.T) {
	c := testChunker(1000, 200, 50)

	docs := c.Chunk("The hi-fi market is growing steadily.", "report.txt")
	require.Len(t, docs, 1)
	assert.Equal(t, "The hi-fi market is growing steadily.", docs[0].Content)
	assert.Equal(t, "0", docs[0].Metadata["chunk_index"])
	assert.Equal(t, "1", docs[0].Metadata["total_chunks"])
	assert.Equal(t, "report.txt", docs[0].Metadata["source"])
	assert.NotEmpty(t, docs[0].Metadata["token_count"])
}

func TestChunker_EmptyInput(t *testing.T) {
	c := testChunker(1000, 200, 50)
	assert.Empty(t, c.Chunk("", "x"))
	assert.Empty(t, c.Chunk("  \n\n  ", "x"))
}

func TestChunker_ParagraphPacking(t *testing.T) {
	c := testChunker(100, 0, 0)

	para := strings.Repeat("word ", 8) // 40 chars
	text := para + "\n\n" + para + "\n\n" + para + "\n\n" + para

	docs := c.Chunk(text, "x")
	require.Greater(t, len(docs), 1)
	for _, doc := range docs {
		assert.LessOrEqual(t, len(doc.Content), 100)
		assert.NotEmpty(t, strings.TrimSpace(doc.Content))
	}
}

func TestChunker_SentenceSplitOversizedParagraph(t *testing.T) {
	c := testChunker(80, 0, 0)

	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, "This sentence fills the paragraph with text.")
	}
	text := strings.Join(sentences, " ")

	docs := c.Chunk(text, "x")
	require.Greater(t, len(docs), 1)
	for _, doc := range docs {
		// Sentences stay intact.
		assert.True(t, strings.HasSuffix(doc.Content, "."), doc.Content)
	}
}

func TestChunker_OverlapCarriesTail(t *testing.T) {
	c := testChunker(100, 30, 0)

	var sentences []string
	for i := 0; i < 8; i++ {
		sentences = append(sentences, "Another sentence about market research follows here.")
	}
	docs := c.Chunk(strings.Join(sentences, " "), "x")
	require.Greater(t, len(docs), 1)

	// Each chunk after the first begins with the tail of its predecessor.
	for i := 1; i < len(docs); i++ {
		prev := docs[i-1].Content
		head := docs[i].Content
		overlap := prev[len(prev)-20:]
		assert.Contains(t, head, strings.TrimSpace(strings.SplitN(overlap, " ", 2)[1]))
	}
}

func TestChunker_MergesSmallChunks(t *testing.T) {
	c := testChunker(100, 0, 50)

	text := strings.Repeat("long paragraph text here ", 4) + "\n\ntiny"
	docs := c.Chunk(text, "x")
	for _, doc := range docs {
		assert.GreaterOrEqual(t, len(doc.Content), 50)
	}
	// The fragment still made it into some chunk.
	var all strings.Builder
	for _, doc := range docs {
		all.WriteString(doc.Content)
	}
	assert.Contains(t, all.String(), "tiny")
}

func TestSentenceSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "terminal punctuation",
			in:   "First sentence. Second one! Third? Fourth",
			want: []string{"First sentence.", "Second one!", "Third?", "Fourth"},
		},
		{
			name: "no terminator",
			in:   "just a fragment with no ending",
			want: []string{"just a fragment with no ending"},
		},
		{
			name: "decimal points survive",
			in:   "Revenue grew 12.5 percent. Margins held.",
			want: []string{"Revenue grew 12.5 percent.", "Margins held."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sentenceSplit(tt.in))
		})
	}
}

func TestChunker_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(40, 400).Draw(t, "size")
		overlap := rapid.IntRange(0, size/2).Draw(t, "overlap")
		c := testChunker(size, overlap, 0)

		words := rapid.SliceOfN(
			rapid.StringMatching(`[a-z]{1,12}[.!?]`), 0, 400,
		).Draw(t, "words")
		text := strings.Join(words, " ")

		docs := c.Chunk(text, "prop")

		if strings.TrimSpace(text) == "" {
			if len(docs) != 0 {
				t.Fatalf("blank input produced %d chunks", len(docs))
			}
			return
		}

		for i, doc := range docs {
			if strings.TrimSpace(doc.Content) == "" {
				t.Fatalf("chunk %d is empty", i)
			}
			// Overlap and unbreakable words allow modest overshoot.
			if len(doc.Content) > size+overlap+24 {
				t.Fatalf("chunk %d length %d exceeds bound", i, len(doc.Content))
			}
		}

		again := c.Chunk(text, "prop")
		if len(again) != len(docs) {
			t.Fatalf("chunking is not deterministic: %d vs %d", len(docs), len(again))
		}
		for i := range docs {
			if docs[i].Content != again[i].Content {
				t.Fatalf("chunk %d differs between runs", i)
			}
		}
	})
}
