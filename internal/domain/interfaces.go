package domain

import (
	"context"
	"time"
)

// AccessAll is the access-control sentinel granting a role every document.
const AccessAll = "ALL"

// Document is one entry of the corpus stage listing.
type Document struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// Chunk is a pre-embedded document fragment returned by similarity search.
type Chunk struct {
	Text         string
	RelativePath string
	Similarity   float64
}

// SourceLink points at the document backing a grounded answer.
// The URL is presigned and expires after the configured TTL.
type SourceLink struct {
	RelativePath string
	URL          string
}

// Answer is the completion output plus the optional grounding source.
type Answer struct {
	Text   string
	Source *SourceLink
}

// AccessStore reads the role-based access-control mapping.
type AccessStore interface {
	CurrentRole(ctx context.Context) (string, error)
	AccessEntries(ctx context.Context, role string) ([]string, error)
}

// DocumentStore lists the corpus and mints time-bounded links into it.
type DocumentStore interface {
	ListDocuments(ctx context.Context) ([]Document, error)
	PresignURL(ctx context.Context, relativePath string, ttl time.Duration) (string, error)
}

// Retriever runs the platform-side cosine-similarity search over stored
// chunk embeddings. Ties at equal similarity keep the engine's order.
type Retriever interface {
	SimilarChunks(ctx context.Context, question string, limit int) ([]Chunk, error)
}

// Completer invokes the hosted completion model. Single synchronous call,
// whole-answer return; implementations do not retry.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}
