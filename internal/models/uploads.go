package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}

// Queries runs the upload ledger statements.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// ErrNotFound is returned when a ledger row does not exist.
var ErrNotFound = errors.New("upload not found")

// Upload kinds.
const (
	KindAvatar = "avatar"
	KindFile   = "file"
)

// Upload is one stored blob in the ledger.
type Upload struct {
	ID           string
	Kind         string
	OriginalName string
	StoredName   string
	ContentType  string
	Size         int64
	CreatedAt    time.Time
}

type CreateUploadParams struct {
	ID           string
	Kind         string
	OriginalName string
	StoredName   string
	ContentType  string
	Size         int64
	CreatedAt    time.Time
}

func (q *Queries) CreateUpload(ctx context.Context, arg CreateUploadParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO uploads (id, kind, original_name, stored_name, content_type, size, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Kind, arg.OriginalName, arg.StoredName, arg.ContentType, arg.Size, arg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (q *Queries) GetUpload(ctx context.Context, id string) (Upload, error) {
	var u Upload
	err := q.db.QueryRowContext(ctx, `
SELECT id, kind, original_name, stored_name, content_type, size, created_at
FROM uploads WHERE id = ?`, id).Scan(
		&u.ID, &u.Kind, &u.OriginalName, &u.StoredName, &u.ContentType, &u.Size, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, ErrNotFound
	}
	if err != nil {
		return Upload{}, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

// ListUploads returns the most recent uploads of kind, newest first. An empty
// kind lists every kind.
func (q *Queries) ListUploads(ctx context.Context, kind string, limit int) ([]Upload, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT id, kind, original_name, stored_name, content_type, size, created_at
FROM uploads
WHERE (? = '' OR kind = ?)
ORDER BY created_at DESC, id
LIMIT ?`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.Kind, &u.OriginalName, &u.StoredName, &u.ContentType, &u.Size, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
