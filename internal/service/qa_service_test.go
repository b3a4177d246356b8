package service

import (
	"context"
	"errors"
	"testing"

	"docchat/internal/domain"
)

// mockBuilder implements PromptBuilder for testing.
type mockBuilder struct {
	prompt       string
	source       *domain.SourceLink
	err          error
	lastQuestion string
	lastGrounded bool
}

func (m *mockBuilder) Build(ctx context.Context, question string, grounded bool) (string, *domain.SourceLink, error) {
	m.lastQuestion = question
	m.lastGrounded = grounded
	return m.prompt, m.source, m.err
}

// mockCompleter implements domain.Completer for testing.
type mockCompleter struct {
	response   string
	err        error
	lastModel  string
	lastPrompt string
}

func (m *mockCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	m.lastModel = model
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestAskReturnsAnswerWithSource(t *testing.T) {
	source := &domain.SourceLink{RelativePath: "a.pdf", URL: "https://example.com/a"}
	builder := &mockBuilder{prompt: "assembled prompt", source: source}
	completer := &mockCompleter{response: "the answer"}
	svc := NewQAService(builder, completer)

	got, err := svc.Ask(context.Background(), "what is this?", "mistral-large", true)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if got.Text != "the answer" {
		t.Errorf("answer text %q, want %q", got.Text, "the answer")
	}
	if got.Source != source {
		t.Errorf("answer source %+v, want the builder's source link", got.Source)
	}
	if !builder.lastGrounded {
		t.Error("grounding flag was not forwarded to the builder")
	}
	if completer.lastModel != "mistral-large" {
		t.Errorf("model %q was sent to the completer, want mistral-large", completer.lastModel)
	}
	if completer.lastPrompt != "assembled prompt" {
		t.Errorf("prompt %q was sent to the completer, want the assembled prompt", completer.lastPrompt)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := NewQAService(&mockBuilder{}, &mockCompleter{})

	_, err := svc.Ask(context.Background(), "", "mixtral-8x7b", false)
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("got %v, want ErrEmptyQuestion", err)
	}
}

func TestAskBuilderError(t *testing.T) {
	wantErr := errors.New("retrieval down")
	completer := &mockCompleter{}
	svc := NewQAService(&mockBuilder{err: wantErr}, completer)

	_, err := svc.Ask(context.Background(), "q", "gemma-7b", true)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want builder error", err)
	}
	if completer.lastPrompt != "" {
		t.Error("completion was invoked despite a prompt build failure")
	}
}

func TestAskCompleterError(t *testing.T) {
	wantErr := errors.New("model service unavailable")
	svc := NewQAService(&mockBuilder{prompt: "p"}, &mockCompleter{err: wantErr})

	_, err := svc.Ask(context.Background(), "q", "llama3-8b", false)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want completer error", err)
	}
}
