package platform

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goliatone/go-resource-broker/core"
)

type ContentRow struct {
	Path     string
	MimeType string
}

// ContentTable maps content references to files on disk. It answers the
// broker's path lookups and access probes without a database.
type ContentTable struct {
	mu         sync.RWMutex
	pathColumn string
	rows       map[string]ContentRow
}

func NewContentTable(pathColumn string) *ContentTable {
	pathColumn = strings.TrimSpace(pathColumn)
	if pathColumn == "" {
		pathColumn = core.DefaultPathColumn
	}
	return &ContentTable{pathColumn: pathColumn, rows: map[string]ContentRow{}}
}

func (t *ContentTable) Put(reference string, row ContentRow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[strings.TrimSpace(reference)] = row
}

func (t *ContentTable) Delete(reference string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, strings.TrimSpace(reference))
}

func (t *ContentTable) Query(ctx context.Context, reference string, columns []string) (core.ContentCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	row, ok := t.rows[strings.TrimSpace(reference)]
	t.mu.RUnlock()

	cursor := &tableCursor{}
	if !ok {
		return cursor, nil
	}
	values := map[string]string{}
	for _, column := range columns {
		switch column {
		case t.pathColumn:
			if row.Path != "" {
				values[column] = row.Path
			}
		case "mime_type":
			if row.MimeType != "" {
				values[column] = row.MimeType
			}
		default:
			return nil, fmt.Errorf("platform: column %q is not available", column)
		}
	}
	cursor.rows = []map[string]string{values}
	return cursor, nil
}

func (t *ContentTable) Open(ctx context.Context, reference string) (io.Closer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	row, ok := t.rows[strings.TrimSpace(reference)]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("platform: content reference %s not found", reference)
	}
	file, err := os.Open(row.Path)
	if err != nil {
		return nil, fmt.Errorf("platform: open %s: %w", reference, err)
	}
	return file, nil
}

type tableCursor struct {
	rows   []map[string]string
	pos    int
	closed bool
}

func (c *tableCursor) Next() bool {
	if c.closed || c.pos >= len(c.rows) {
		c.pos = len(c.rows) + 1
		return false
	}
	c.pos++
	return true
}

func (c *tableCursor) Value(column string) (string, bool, error) {
	if c.closed {
		return "", false, fmt.Errorf("platform: cursor is closed")
	}
	if c.pos < 1 || c.pos > len(c.rows) {
		return "", false, fmt.Errorf("platform: cursor is not positioned on a row")
	}
	value, ok := c.rows[c.pos-1][column]
	return value, ok, nil
}

func (c *tableCursor) Err() error {
	return nil
}

func (c *tableCursor) Close() error {
	c.closed = true
	return nil
}
