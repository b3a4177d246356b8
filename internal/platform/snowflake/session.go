// Package snowflake is the single platform session behind every external
// operation: access-control reads, stage listing, vector similarity search,
// presigned URL generation and Cortex completion. One *sql.DB is opened at
// process start and injected into each component; there is no package-level
// connection state.
package snowflake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"docchat/internal/domain"
)

// Config carries connection details plus the corpus object names.
// Stage and table names are spliced into SQL as identifiers (they cannot
// be bound), so callers must pass validated values; everything runtime
// (role, question, path, TTL, model, prompt) is bound as a parameter.
type Config struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string

	Stage          string
	ChunksTable    string
	AccessTable    string
	EmbeddingModel string
}

// Session implements the domain ports over one Snowflake connection pool.
type Session struct {
	db  *sql.DB
	cfg Config
}

// Open establishes the platform session. The connection is verified with a
// ping so that credential problems surface at startup, not mid-interaction.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("build snowflake DSN: %w", err)
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snowflake connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping snowflake: %w", err)
	}
	return NewSession(db, cfg), nil
}

// NewSession wraps an existing handle. Used by Open and by tests.
func NewSession(db *sql.DB, cfg Config) *Session {
	return &Session{db: db, cfg: cfg}
}

// Close releases the underlying connection pool.
func (s *Session) Close() error { return s.db.Close() }

// CurrentRole returns the role of the authenticated session context.
func (s *Session) CurrentRole(ctx context.Context) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, "SELECT CURRENT_ROLE()").Scan(&role)
	if err != nil {
		return "", fmt.Errorf("read current role: %w", err)
	}
	return role, nil
}

// AccessEntries returns the raw access-control entries for a role. Zero
// rows is not an error; the resolver treats it as no access.
func (s *Session) AccessEntries(ctx context.Context, role string) ([]string, error) {
	query := fmt.Sprintf("SELECT pdf_access FROM %s WHERE role = ?", s.cfg.AccessTable)
	rows, err := s.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("query access control for role %s: %w", role, err)
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("scan access entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read access entries: %w", err)
	}
	slog.Debug("access entries loaded", "role", role, "count", len(entries))
	return entries, nil
}

// ListDocuments lists the corpus stage. Snowflake reports last_modified as
// an RFC 1123 string; an unparsable value degrades to the zero time rather
// than failing the listing.
func (s *Session) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	query := fmt.Sprintf("LS @%s", s.cfg.Stage)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stage @%s: %w", s.cfg.Stage, err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			name         string
			size         int64
			md5          string
			lastModified string
		)
		if err := rows.Scan(&name, &size, &md5, &lastModified); err != nil {
			return nil, fmt.Errorf("scan stage entry: %w", err)
		}
		ts, err := time.Parse(time.RFC1123, lastModified)
		if err != nil {
			ts = time.Time{}
		}
		docs = append(docs, domain.Document{Name: name, Size: size, LastModified: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stage listing: %w", err)
	}
	slog.Debug("stage listed", "stage", s.cfg.Stage, "documents", len(docs))
	return docs, nil
}

// SimilarChunks embeds the question platform-side and returns the limit
// most similar chunks by descending cosine similarity. Ties keep the
// engine's order, which is not deterministic.
func (s *Session) SimilarChunks(ctx context.Context, question string, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		return nil, errors.New("similarity search limit must be positive")
	}
	query := fmt.Sprintf(`WITH results AS (
    SELECT relative_path,
           VECTOR_COSINE_SIMILARITY(chunk_vec, SNOWFLAKE.CORTEX.EMBED_TEXT_768(?, ?)) AS similarity,
           chunk
    FROM %s
    ORDER BY similarity DESC
    LIMIT ?
)
SELECT chunk, relative_path, similarity FROM results`, s.cfg.ChunksTable)

	rows, err := s.db.QueryContext(ctx, query, s.cfg.EmbeddingModel, question, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.Text, &c.RelativePath, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read similarity results: %w", err)
	}
	slog.Debug("similarity search done", "requested", limit, "returned", len(chunks))
	return chunks, nil
}

// PresignURL returns a time-bounded access URL for one staged document.
// Path and TTL are bound parameters; relative paths can contain arbitrary
// storage-reported characters and must never be spliced into the query.
func (s *Session) PresignURL(ctx context.Context, relativePath string, ttl time.Duration) (string, error) {
	query := fmt.Sprintf("SELECT GET_PRESIGNED_URL(@%s, ?, ?) AS url_link", s.cfg.Stage)
	var url string
	err := s.db.QueryRowContext(ctx, query, relativePath, int64(ttl.Seconds())).Scan(&url)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", relativePath, err)
	}
	return url, nil
}

// Complete invokes the hosted completion model with the assembled prompt.
// One synchronous call; failures propagate to the caller unretried.
func (s *Session) Complete(ctx context.Context, model, prompt string) (string, error) {
	started := time.Now()
	var response string
	err := s.db.QueryRowContext(ctx,
		"SELECT SNOWFLAKE.CORTEX.COMPLETE(?, ?) AS response", model, prompt).Scan(&response)
	if err != nil {
		return "", fmt.Errorf("completion with model %s: %w", model, err)
	}
	slog.Debug("completion done", "model", model, "elapsed", time.Since(started))
	return response, nil
}
