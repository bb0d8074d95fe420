package rag

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/aman1195/helium/config"
)

// Document is a unit of retrievable content, usually one chunk of a
// larger source text.
type Document struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float64         `json:"embedding,omitempty"`
}

// Chunker splits text into overlapping chunks sized for embedding.
// Splitting prefers paragraph boundaries, then sentence boundaries
// inside oversized paragraphs.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	minChunkSize int
	tokenizer    Tokenizer
}

// NewChunker creates a chunker from the retrieval configuration.
// A nil tokenizer falls back to the character estimator.
func NewChunker(cfg config.RAGConfig, tokenizer Tokenizer) *Chunker {
	size := cfg.ChunkSize
	if size <= 0 {
		size = 1000
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	minSize := cfg.MinChunkSize
	if minSize < 0 {
		minSize = 0
	}
	if tokenizer == nil {
		tokenizer = EstimatorTokenizer{}
	}
	return &Chunker{
		chunkSize:    size,
		chunkOverlap: overlap,
		minChunkSize: minSize,
		tokenizer:    tokenizer,
	}
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// Chunk splits text into documents carrying chunk_index, total_chunks,
// source, and token_count metadata. Empty input yields no chunks.
func (c *Chunker) Chunk(text, source string) []Document {
	pieces := c.split(text)
	if len(pieces) == 0 {
		return nil
	}

	total := strconv.Itoa(len(pieces))
	docs := make([]Document, len(pieces))
	for i, piece := range pieces {
		docs[i] = Document{
			ID:      uuid.NewString(),
			Content: piece,
			Metadata: map[string]string{
				"chunk_index":  strconv.Itoa(i),
				"total_chunks": total,
				"source":       source,
				"token_count":  strconv.Itoa(c.tokenizer.CountTokens(piece)),
			},
		}
	}
	return docs
}

// split produces the raw chunk texts.
func (c *Chunker) split(text string) []string {
	var chunks []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(cur, "\n"))
		cur = nil
		curLen = 0
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > c.chunkSize {
			flush()
			chunks = append(chunks, c.splitSentences(para)...)
			continue
		}

		if curLen+len(para) > c.chunkSize && len(cur) > 0 {
			chunk := strings.Join(cur, "\n")
			chunks = append(chunks, chunk)
			cur = nil
			curLen = 0
			if tail := c.overlapTail(chunk); tail != "" {
				cur = append(cur, tail)
				curLen = len(tail) + 1
			}
		}
		cur = append(cur, para)
		curLen += len(para) + 1
	}
	flush()

	return c.mergeSmall(chunks)
}

// splitSentences packs an oversized paragraph sentence by sentence.
func (c *Chunker) splitSentences(para string) []string {
	sentences := sentenceSplit(para)

	var chunks []string
	var cur []string
	curLen := 0
	for _, sentence := range sentences {
		if curLen+len(sentence) > c.chunkSize && len(cur) > 0 {
			chunk := strings.Join(cur, " ")
			chunks = append(chunks, chunk)
			cur = nil
			curLen = 0
			if tail := c.overlapTail(chunk); tail != "" {
				cur = append(cur, tail)
				curLen = len(tail) + 1
			}
		}
		cur = append(cur, sentence)
		curLen += len(sentence) + 1
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// sentenceSplit breaks text after terminal punctuation followed by
// whitespace. A piece with no terminator is returned whole.
func sentenceSplit(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				sentence := strings.TrimSpace(text[start : i+1])
				if sentence != "" {
					out = append(out, sentence)
				}
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// overlapTail returns the trailing overlap of a finished chunk, cut
// forward to a word boundary. Chunks no longer than the overlap carry
// nothing, so a chunk never repeats in full.
func (c *Chunker) overlapTail(chunk string) string {
	if c.chunkOverlap <= 0 || len(chunk) <= c.chunkOverlap {
		return ""
	}
	tail := chunk[len(chunk)-c.chunkOverlap:]
	if i := strings.IndexAny(tail, " \n\t"); i >= 0 {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(tail)
}

// mergeSmall folds chunks below the minimum size into their neighbor
// so retrieval never indexes fragments.
func (c *Chunker) mergeSmall(chunks []string) []string {
	if c.minChunkSize <= 0 || len(chunks) <= 1 {
		return chunks
	}

	var out []string
	carry := ""
	for _, chunk := range chunks {
		if carry != "" {
			chunk = carry + "\n" + chunk
			carry = ""
		}
		if len(chunk) < c.minChunkSize {
			carry = chunk
			continue
		}
		out = append(out, chunk)
	}
	if carry != "" {
		if len(out) > 0 {
			out[len(out)-1] += "\n" + carry
		} else {
			out = append(out, carry)
		}
	}
	return out
}
