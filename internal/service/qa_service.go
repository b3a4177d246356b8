// Package service wires the prompt builder and completion invoker into the
// question-answering pipeline: a pure function from (question, model,
// grounding flag) to an answer. No state survives between calls.
package service

import (
	"context"
	"errors"
	"fmt"

	"docchat/internal/domain"
)

// ErrEmptyQuestion is returned when Ask is called with a blank question.
// The shell gates on non-empty input, so hitting this indicates a caller bug.
var ErrEmptyQuestion = errors.New("question must not be empty")

// PromptBuilder is the service-facing subset of the prompt package.
type PromptBuilder interface {
	Build(ctx context.Context, question string, grounded bool) (string, *domain.SourceLink, error)
}

// QAService runs one question through prompt assembly and completion.
type QAService struct {
	builder   PromptBuilder
	completer domain.Completer
}

// NewQAService creates a QAService with injected dependencies.
func NewQAService(builder PromptBuilder, completer domain.Completer) *QAService {
	return &QAService{builder: builder, completer: completer}
}

// Ask answers a question with the given model, grounding it in the corpus
// when requested. Failures from either stage propagate unrecovered; there
// is no lower layer that could meaningfully compensate.
func (s *QAService) Ask(ctx context.Context, question, model string, grounded bool) (domain.Answer, error) {
	if question == "" {
		return domain.Answer{}, ErrEmptyQuestion
	}
	p, source, err := s.builder.Build(ctx, question, grounded)
	if err != nil {
		return domain.Answer{}, err
	}
	text, err := s.completer.Complete(ctx, model, p)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("completion failed: %w", err)
	}
	return domain.Answer{Text: text, Source: source}, nil
}
