package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"github.com/lorehub/lore/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL DEFAULT '',
	content   TEXT NOT NULL,
	category  TEXT NOT NULL DEFAULT '',
	embedding TEXT,
	metadata  TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
`

// SQLiteRepo is the SQLite-backed document repository.
type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite document repository at path.
func NewSQLite(path string) (*SQLiteRepo, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// Single writer; sqlite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteRepo{db: sqlDB}, nil
}

// Close closes the underlying database.
func (r *SQLiteRepo) Close() error { return r.db.Close() }

// Ping checks database availability.
func (r *SQLiteRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// Upsert creates or updates a document.
func (r *SQLiteRepo) Upsert(ctx context.Context, doc *domain.Document) error {
	embedding, metadata, err := encodeColumns(doc)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, category, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			category = excluded.category,
			embedding = excluded.embedding,
			metadata = excluded.metadata`,
		doc.ID(), doc.Title(), doc.Content(), doc.Category(), embedding, metadata)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID(), err)
	}
	return nil
}

// Get returns a document by ID.
func (r *SQLiteRepo) Get(ctx context.Context, id string) (domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT title, content, category, embedding, metadata
		FROM documents WHERE id = ?`, id)

	doc, err := scanDoc(id, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, err
}

// Delete removes a document.
func (r *SQLiteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Query returns all documents matching the filter.
func (r *SQLiteRepo) Query(ctx context.Context, filter domain.Filter) ([]domain.Document, error) {
	query := `SELECT id, title, content, category, embedding, metadata FROM documents`
	args := []any{}
	if filter.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []domain.Document
	for rows.Next() {
		var id string
		doc, err := scanDoc("", func(dest ...any) error {
			return rows.Scan(append([]any{&id}, dest...)...)
		})
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.ReconstructDocument(
			id, doc.Title(), doc.Content(), doc.Category(), doc.Embedding(), doc.Metadata()))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func encodeColumns(doc *domain.Document) (embedding, metadata sql.NullString, err error) {
	if v := doc.Embedding(); v != nil {
		data, merr := json.Marshal(v)
		if merr != nil {
			return embedding, metadata, fmt.Errorf("marshal embedding: %w", merr)
		}
		embedding = sql.NullString{String: string(data), Valid: true}
	}
	if m := doc.Metadata(); m != nil {
		data, merr := json.Marshal(m)
		if merr != nil {
			return embedding, metadata, fmt.Errorf("marshal metadata: %w", merr)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}
	return embedding, metadata, nil
}

func scanDoc(id string, scan func(dest ...any) error) (domain.Document, error) {
	var title, content, category string
	var embedding, metadata sql.NullString

	if err := scan(&title, &content, &category, &embedding, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, err
		}
		return domain.Document{}, fmt.Errorf("scan document: %w", err)
	}

	var vector []float32
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &vector); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshal embedding: %w", err)
		}
	}
	var meta map[string]string
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &meta); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return domain.ReconstructDocument(id, title, content, category, vector, meta), nil
}
