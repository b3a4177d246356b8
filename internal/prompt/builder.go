// Package prompt assembles the completion prompt, grounded or not, and the
// source link for grounded answers.
package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docchat/internal/domain"
)

const groundedTemplate = `You are an expert assistant extracting information from context provided.
Answer the question based on the context. Be concise and do not hallucinate.
If you don't have the information just say so.
Context: %s
Question:
%s
Answer:`

const ungroundedTemplate = `Question:
%s
Answer:`

// Builder turns a question into a bounded prompt. Every call recomputes
// from scratch; there is no caching.
type Builder struct {
	retriever  domain.Retriever
	docs       domain.DocumentStore
	numChunks  int
	presignTTL time.Duration
}

// NewBuilder creates a Builder. numChunks is the similarity-search
// candidate count; presignTTL bounds the source link's validity.
func NewBuilder(retriever domain.Retriever, docs domain.DocumentStore, numChunks int, presignTTL time.Duration) *Builder {
	if numChunks <= 0 {
		numChunks = 3
	}
	return &Builder{retriever: retriever, docs: docs, numChunks: numChunks, presignTTL: presignTTL}
}

// Build returns the prompt and, for grounded questions with at least one
// retrieved chunk, a presigned link to the best-matching source document.
//
// Context policy: of the numChunks candidates, all but the lowest-ranked
// contribute text, in rank order; the last candidate serves only as a
// relevance margin. A single retrieved chunk is used whole. The source
// link always points at the rank-0 chunk's document.
//
// When grounding is requested but retrieval returns nothing, Build falls
// back to the ungrounded template with a nil source link; the shell is
// responsible for telling the user no relevant document was found.
func (b *Builder) Build(ctx context.Context, question string, grounded bool) (string, *domain.SourceLink, error) {
	if !grounded {
		return fmt.Sprintf(ungroundedTemplate, question), nil, nil
	}

	chunks, err := b.retriever.SimilarChunks(ctx, question, b.numChunks)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve context: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Sprintf(ungroundedTemplate, question), nil, nil
	}

	contextBlock := contextFrom(chunks)
	p := fmt.Sprintf(groundedTemplate, contextBlock, question)

	url, err := b.docs.PresignURL(ctx, chunks[0].RelativePath, b.presignTTL)
	if err != nil {
		return "", nil, fmt.Errorf("presign source document: %w", err)
	}
	return p, &domain.SourceLink{RelativePath: chunks[0].RelativePath, URL: url}, nil
}

// contextFrom concatenates chunk text per the context policy and strips
// single quotes, which the platform's string handling chokes on downstream.
func contextFrom(chunks []domain.Chunk) string {
	keep := len(chunks) - 1
	if keep == 0 {
		keep = 1
	}
	var sb strings.Builder
	for _, c := range chunks[:keep] {
		sb.WriteString(c.Text)
	}
	return strings.ReplaceAll(sb.String(), "'", "")
}
