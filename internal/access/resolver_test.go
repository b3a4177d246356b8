package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"docchat/internal/domain"
)

// mockAccessStore implements domain.AccessStore for testing.
type mockAccessStore struct {
	role       string
	roleErr    error
	entries    []string
	entriesErr error
	queriedFor string
}

func (m *mockAccessStore) CurrentRole(ctx context.Context) (string, error) {
	return m.role, m.roleErr
}

func (m *mockAccessStore) AccessEntries(ctx context.Context, role string) ([]string, error) {
	m.queriedFor = role
	return m.entries, m.entriesErr
}

// mockDocStore implements domain.DocumentStore for testing.
type mockDocStore struct {
	docs      []domain.Document
	listErr   error
	listCalls int
}

func (m *mockDocStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	m.listCalls++
	return m.docs, m.listErr
}

func (m *mockDocStore) PresignURL(ctx context.Context, relativePath string, ttl time.Duration) (string, error) {
	return "", errors.New("not used in access tests")
}

func docsNamed(names ...string) []domain.Document {
	docs := make([]domain.Document, len(names))
	for i, n := range names {
		docs[i] = domain.Document{Name: n}
	}
	return docs
}

func TestResolve(t *testing.T) {
	fullListing := docsNamed("reports/q1.pdf", "reports/q2.pdf", "hr/salary.pdf")

	tests := []struct {
		name    string
		role    string
		entries []string
		want    []string
	}{
		{
			name:    "ALL sentinel grants the complete listing",
			role:    "ADMIN",
			entries: []string{"ALL"},
			want:    []string{"reports/q1.pdf", "reports/q2.pdf", "hr/salary.pdf"},
		},
		{
			name:    "ALL among specific entries still grants everything",
			role:    "AUDITOR",
			entries: []string{"reports/q1.pdf", "ALL"},
			want:    []string{"reports/q1.pdf", "reports/q2.pdf", "hr/salary.pdf"},
		},
		{
			name:    "specific entries intersect by filename",
			role:    "ANALYST",
			entries: []string{"reports/q1.pdf"},
			want:    []string{"reports/q1.pdf"},
		},
		{
			name:    "entry filename matches regardless of its directory",
			role:    "ANALYST",
			entries: []string{"archive/old/q2.pdf"},
			want:    []string{"reports/q2.pdf"},
		},
		{
			name:    "entries not in the listing grant nothing",
			role:    "GUEST",
			entries: []string{"missing.pdf"},
			want:    []string{},
		},
		{
			name:    "no entries means no documents",
			role:    "INTERN",
			entries: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockAccessStore{role: tt.role, entries: tt.entries}
			docs := &mockDocStore{docs: fullListing}
			r := NewResolver(store, docs)

			got, err := r.Resolve(context.Background())
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if store.queriedFor != tt.role && len(tt.entries) > 0 {
				t.Errorf("queried access entries for role %q, want %q", store.queriedFor, tt.role)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d documents, want %d: %v", len(got), len(tt.want), got)
			}
			for i, doc := range got {
				if doc.Name != tt.want[i] {
					t.Errorf("document %d: got %q, want %q", i, doc.Name, tt.want[i])
				}
			}
		})
	}
}

func TestResolveRoleLookupError(t *testing.T) {
	wantErr := errors.New("role lookup failed")
	r := NewResolver(&mockAccessStore{roleErr: wantErr}, &mockDocStore{})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want role lookup error", err)
	}
}

func TestResolveAccessQueryError(t *testing.T) {
	wantErr := errors.New("access table unavailable")
	r := NewResolver(&mockAccessStore{role: "ANALYST", entriesErr: wantErr}, &mockDocStore{})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want access query error", err)
	}
}

func TestResolveListingError(t *testing.T) {
	wantErr := errors.New("stage listing unavailable")
	store := &mockAccessStore{role: "ADMIN", entries: []string{"ALL"}}
	r := NewResolver(store, &mockDocStore{listErr: wantErr})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want listing error", err)
	}
}

func TestResolveNoEntriesSkipsListing(t *testing.T) {
	docs := &mockDocStore{docs: docsNamed("a.pdf")}
	r := NewResolver(&mockAccessStore{role: "INTERN"}, docs)

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty listing, got %v", got)
	}
	if docs.listCalls != 0 {
		t.Errorf("expected no listing query for a role without entries, got %d", docs.listCalls)
	}
}
