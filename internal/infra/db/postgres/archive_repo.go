package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/policylens/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS policy_analyses (
  id              UUID         PRIMARY KEY,
  doc_type        VARCHAR(64)  NOT NULL,
  model           VARCHAR(128) NOT NULL,
  document_sha256 CHAR(64)     NOT NULL,
  document_chars  INTEGER      NOT NULL,
  result_json     JSONB        NOT NULL,
  raw_completion  TEXT         NOT NULL,
  created_at      TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_policy_analyses_created ON policy_analyses (created_at DESC);
`

const insertRecordSQL = `
INSERT INTO policy_analyses
  (id, doc_type, model, document_sha256, document_chars, result_json, raw_completion, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  result_json=EXCLUDED.result_json,
  raw_completion=EXCLUDED.raw_completion;
`

const listRecordsSQL = `
SELECT id, doc_type, model, document_sha256, document_chars, result_json, raw_completion, created_at
FROM policy_analyses
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`

type ArchiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Check pings the database for /ready
func (r *ArchiveRepository) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

// EnsureSchema creates the archive table when missing
func (r *ArchiveRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts or updates an analysis record
func (r *ArchiveRepository) Save(ctx context.Context, a *domain.Record) error {
	docType := stringOrDash(string(a.DocType))
	model := stringOrDash(a.Model)
	result := a.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertRecordSQL, a.ID, docType, model, a.DocumentSHA256, a.DocumentChars, result, a.RawCompletion, createdAt)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *ArchiveRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	limit, offset := pageBounds(page, pageSize)

	rows, err := r.db.QueryContext(ctx, listRecordsSQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		var a domain.Record
		if err := rows.Scan(&a.ID, &a.DocType, &a.Model, &a.DocumentSHA256, &a.DocumentChars, &a.Result, &a.RawCompletion, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
