package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-resource-broker/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ContentIndex resolves opaque content references to file paths. It serves
// both the result lookup and the access probe of the broker.
type ContentIndex struct {
	db      *bun.DB
	repo    repository.Repository[*contentEntryRecord]
	columns map[string]string
}

type ContentIndexOption func(*ContentIndex)

// WithColumnAlias exposes a table column under the projection name callers
// ask for, e.g. the platform's path column.
func WithColumnAlias(alias string, column string) ContentIndexOption {
	return func(idx *ContentIndex) {
		alias = strings.TrimSpace(alias)
		column = strings.TrimSpace(column)
		if alias == "" || column == "" {
			return
		}
		idx.columns[alias] = column
	}
}

func NewContentIndex(db *bun.DB, opts ...ContentIndexOption) (*ContentIndex, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*contentEntryRecord](db, contentEntryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid content entry repository wiring: %w", err)
		}
	}
	idx := &ContentIndex{
		db:   db,
		repo: repo,
		columns: map[string]string{
			core.DefaultPathColumn: "path",
			"_display_name":        "display_name",
			"mime_type":            "mime_type",
			"reference":            "reference",
			"display_name":         "display_name",
			"path":                 "path",
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(idx)
		}
	}
	return idx, nil
}

func (s *ContentIndex) Register(ctx context.Context, in ContentEntry) (ContentEntry, error) {
	if s == nil || s.repo == nil {
		return ContentEntry{}, fmt.Errorf("sqlstore: content index is not configured")
	}
	in.Reference = strings.TrimSpace(in.Reference)
	in.Path = strings.TrimSpace(in.Path)
	if in.Reference == "" {
		return ContentEntry{}, fmt.Errorf("sqlstore: content reference is required")
	}
	if in.Path == "" || !filepath.IsAbs(in.Path) {
		return ContentEntry{}, fmt.Errorf("sqlstore: content path must be absolute")
	}
	record := newContentEntryRecord(in, uuid.NewString(), time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return ContentEntry{}, err
	}
	return created.toDomain(), nil
}

func (s *ContentIndex) Lookup(ctx context.Context, reference string) (ContentEntry, error) {
	if s == nil || s.repo == nil {
		return ContentEntry{}, fmt.Errorf("sqlstore: content index is not configured")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return ContentEntry{}, fmt.Errorf("sqlstore: content reference is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("reference", "=", reference),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return ContentEntry{}, err
	}
	if len(records) == 0 {
		return ContentEntry{}, fmt.Errorf("sqlstore: content reference %s not found", reference)
	}
	return records[0].toDomain(), nil
}

func (s *ContentIndex) List(ctx context.Context, mimeType string) ([]ContentEntry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: content index is not configured")
	}
	criteria := []repository.SelectCriteria{repository.OrderBy("created_at ASC")}
	if trimmed := strings.TrimSpace(mimeType); trimmed != "" {
		criteria = append(criteria, repository.SelectBy("mime_type", "=", trimmed))
	}
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]ContentEntry, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *ContentIndex) Remove(ctx context.Context, reference string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: content index is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*contentEntryRecord)(nil)).
		Where("reference = ?", strings.TrimSpace(reference)).
		Exec(ctx)
	return err
}

// Query projects the requested columns for reference. The returned cursor
// holds a live result set and must be closed by the caller.
func (s *ContentIndex) Query(ctx context.Context, reference string, columns []string) (core.ContentCursor, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: content index is not configured")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("sqlstore: at least one column is required")
	}
	q := s.db.NewSelect().Model((*contentEntryRecord)(nil))
	for _, alias := range columns {
		column, ok := s.columns[strings.TrimSpace(alias)]
		if !ok {
			return nil, fmt.Errorf("sqlstore: column %q is not indexed", alias)
		}
		q = q.ColumnExpr("?TableAlias.? AS ?", bun.Ident(column), bun.Ident(strings.TrimSpace(alias)))
	}
	rows, err := q.
		Where("?TableAlias.reference = ?", strings.TrimSpace(reference)).
		OrderExpr("?TableAlias.created_at ASC").
		Limit(1).
		Rows(ctx)
	if err != nil {
		return nil, err
	}
	names, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return &rowsCursor{rows: rows, columns: names}, nil
}

// Open opens the file behind reference for reading.
func (s *ContentIndex) Open(ctx context.Context, reference string) (io.Closer, error) {
	entry, err := s.Lookup(ctx, reference)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", reference, err)
	}
	return file, nil
}

type rowsCursor struct {
	rows    *sql.Rows
	columns []string
	current []sql.NullString
	err     error
}

func (c *rowsCursor) Next() bool {
	if c == nil || c.rows == nil || c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.current = nil
		return false
	}
	values := make([]sql.NullString, len(c.columns))
	targets := make([]any, len(values))
	for i := range values {
		targets[i] = &values[i]
	}
	if err := c.rows.Scan(targets...); err != nil {
		c.err = err
		c.current = nil
		return false
	}
	c.current = values
	return true
}

func (c *rowsCursor) Value(column string) (string, bool, error) {
	if c == nil || c.current == nil {
		return "", false, fmt.Errorf("sqlstore: cursor is not positioned on a row")
	}
	for i, name := range c.columns {
		if name != column {
			continue
		}
		if !c.current[i].Valid {
			return "", false, nil
		}
		return c.current[i].String, true, nil
	}
	return "", false, nil
}

func (c *rowsCursor) Err() error {
	if c == nil || c.rows == nil {
		return nil
	}
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *rowsCursor) Close() error {
	if c == nil || c.rows == nil {
		return nil
	}
	return c.rows.Close()
}
