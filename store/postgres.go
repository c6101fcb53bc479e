package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lib/pq"
)

// PostgresStore keeps every collection in a single documents table keyed by
// (collection, partition_key, id), with the body as JSONB and a version
// column serving as the optimistic-concurrency token.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the documents table and its cross-partition lookup
// index if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			collection    TEXT        NOT NULL,
			partition_key TEXT        NOT NULL,
			id            TEXT        NOT NULL,
			body          JSONB       NOT NULL,
			version       TEXT        NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, partition_key, id)
		);
		CREATE INDEX IF NOT EXISTS documents_by_id ON documents (collection, id);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, c Collection, id, partitionKey string) (*Doc, error) {
	const query = `
		SELECT body, version FROM documents
		WHERE collection = $1 AND partition_key = $2 AND id = $3`

	doc := Doc{ID: id, PartitionKey: partitionKey}
	err := s.db.QueryRowContext(ctx, query, string(c), partitionKey, id).Scan(&doc.Data, &doc.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s in partition %q", ErrNotFound, c, id, partitionKey)
		}
		return nil, fmt.Errorf("%w: get %s/%s: %v", ErrUnavailable, c, id, err)
	}
	return &doc, nil
}

func (s *PostgresStore) Create(ctx context.Context, c Collection, doc Doc) (*Doc, error) {
	const query = `
		INSERT INTO documents (collection, partition_key, id, body, version)
		VALUES ($1, $2, $3, $4, $5)`

	doc.Version = newVersionToken()
	_, err := s.db.ExecContext(ctx, query, string(c), doc.PartitionKey, doc.ID, []byte(doc.Data), doc.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, c, doc.ID)
		}
		return nil, fmt.Errorf("%w: create %s/%s: %v", ErrUnavailable, c, doc.ID, err)
	}
	return &doc, nil
}

func (s *PostgresStore) Replace(ctx context.Context, c Collection, id, partitionKey string, data json.RawMessage, expectedVersion string) (*Doc, error) {
	const query = `
		UPDATE documents SET body = $1, version = $2, updated_at = now()
		WHERE collection = $3 AND partition_key = $4 AND id = $5 AND version = $6`

	next := newVersionToken()
	result, err := s.db.ExecContext(ctx, query, []byte(data), next, string(c), partitionKey, id, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: replace %s/%s: %v", ErrUnavailable, c, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: replace %s/%s: %v", ErrUnavailable, c, id, err)
	}
	if affected == 0 {
		// Distinguish a lost race from a missing document.
		if _, getErr := s.Get(ctx, c, id, partitionKey); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: %s/%s", ErrVersionConflict, c, id)
	}
	return &Doc{ID: id, PartitionKey: partitionKey, Data: data, Version: next}, nil
}

func (s *PostgresStore) Delete(ctx context.Context, c Collection, id, partitionKey string) error {
	const query = `
		DELETE FROM documents
		WHERE collection = $1 AND partition_key = $2 AND id = $3`

	result, err := s.db.ExecContext(ctx, query, string(c), partitionKey, id)
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", ErrUnavailable, c, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", ErrUnavailable, c, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s/%s in partition %q", ErrNotFound, c, id, partitionKey)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, c Collection, f Filter) ([]Doc, error) {
	query := `SELECT partition_key, id, body, version FROM documents WHERE collection = $1`
	args := []any{string(c)}

	if f.PartitionKey != "" {
		args = append(args, f.PartitionKey)
		query += fmt.Sprintf(" AND partition_key = $%d", len(args))
	}
	// Deterministic argument order for the JSON field filters.
	fields := make([]string, 0, len(f.Equals))
	for field := range f.Equals {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		args = append(args, field, f.Equals[field])
		query += fmt.Sprintf(" AND body ->> $%d = $%d", len(args)-1, len(args))
	}
	query += " ORDER BY partition_key, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrUnavailable, c, err)
	}
	defer rows.Close()

	var out []Doc
	for rows.Next() {
		var doc Doc
		if err := rows.Scan(&doc.PartitionKey, &doc.ID, &doc.Data, &doc.Version); err != nil {
			return nil, fmt.Errorf("%w: query %s: %v", ErrUnavailable, c, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrUnavailable, c, err)
	}
	return out, nil
}

// Relocate runs the delete+recreate move as separate statements on purpose:
// the contract exposes the unsafe window between them, and wrapping the pair
// in a transaction here would hide behavior the in-memory backend and the
// workflows are specified against. Each step is logged for reconciliation.
func (s *PostgresStore) Relocate(ctx context.Context, c Collection, id, fromPartitionKey, toPartitionKey string, data json.RawMessage) (*Doc, error) {
	sourcePK := fromPartitionKey
	if _, err := s.Get(ctx, c, id, sourcePK); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Stale partition view: locate the authoritative document by id.
		pk, scanErr := s.findPartition(ctx, c, id)
		if scanErr != nil {
			return nil, scanErr
		}
		s.logger.Warn("relocate: fallback partition discovery",
			slog.String("collection", string(c)),
			slog.String("id", id),
			slog.String("believed_partition", fromPartitionKey),
			slog.String("actual_partition", pk))
		sourcePK = pk
	}

	if err := s.Delete(ctx, c, id, sourcePK); err != nil {
		return nil, err
	}
	s.logger.Info("relocate: deleted from source partition",
		slog.String("collection", string(c)),
		slog.String("id", id),
		slog.String("partition", sourcePK))

	doc, err := s.Create(ctx, c, Doc{ID: id, PartitionKey: toPartitionKey, Data: data})
	if err != nil {
		// The document is gone from the source and absent from the target.
		// Nothing here can roll back; recovery is operational.
		s.logger.Error("relocate: recreate failed, document in unsafe window",
			slog.String("collection", string(c)),
			slog.String("id", id),
			slog.String("from_partition", sourcePK),
			slog.String("to_partition", toPartitionKey),
			slog.Any("error", err))
		return nil, err
	}
	s.logger.Info("relocate: recreated in target partition",
		slog.String("collection", string(c)),
		slog.String("id", id),
		slog.String("partition", toPartitionKey))
	return doc, nil
}

func (s *PostgresStore) findPartition(ctx context.Context, c Collection, id string) (string, error) {
	const query = `SELECT partition_key FROM documents WHERE collection = $1 AND id = $2`

	var pk string
	err := s.db.QueryRowContext(ctx, query, string(c), id).Scan(&pk)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s/%s in any partition", ErrNotFound, c, id)
		}
		return "", fmt.Errorf("%w: scan for %s/%s: %v", ErrUnavailable, c, id, err)
	}
	return pk, nil
}

func newVersionToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("version token entropy unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

var _ DocumentStore = (*PostgresStore)(nil)
