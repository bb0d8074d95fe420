// Package rag implements the retrieval pipeline: character-based
// document chunking, embedding-backed vector search, and a collection
// engine the research agents query for grounding material.
package rag
