// Package access resolves which corpus documents the current role may
// reference. Access-control correctness is never silently degraded: any
// lookup failure propagates as-is, and a role without entries gets an
// empty listing rather than a default allow.
package access

import (
	"context"
	"path"

	"docchat/internal/domain"
)

// Resolver intersects the access-control mapping with the stage listing.
type Resolver struct {
	access domain.AccessStore
	docs   domain.DocumentStore
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(access domain.AccessStore, docs domain.DocumentStore) *Resolver {
	return &Resolver{access: access, docs: docs}
}

// Resolve returns the documents visible to the session's current role.
// An entry equal to the ALL sentinel grants the full listing; otherwise
// entries are matched against the listing by base filename, not full path.
func (r *Resolver) Resolve(ctx context.Context) ([]domain.Document, error) {
	role, err := r.access.CurrentRole(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := r.access.AccessEntries(ctx, role)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []domain.Document{}, nil
	}

	listing, err := r.docs.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e == domain.AccessAll {
			return listing, nil
		}
	}

	allowed := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		allowed[path.Base(e)] = struct{}{}
	}
	visible := make([]domain.Document, 0, len(listing))
	for _, doc := range listing {
		if _, ok := allowed[path.Base(doc.Name)]; ok {
			visible = append(visible, doc)
		}
	}
	return visible, nil
}
