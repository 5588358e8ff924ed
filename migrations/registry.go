package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"

	broker "github.com/goliatone/go-resource-broker"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	SourceLabel = "go-resource-broker"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Migration is one schema step the broker stores depend on.
type Migration struct {
	Name  string
	Table string
}

// Schema lists the broker migrations in apply order.
var Schema = []Migration{
	{Name: "00001_broker_content_entries", Table: "broker_content_entries"},
	{Name: "00002_broker_pending_dispatches", Table: "broker_pending_dispatches"},
}

var dialectPaths = map[string]string{
	DialectPostgres: "data/sql/migrations",
	DialectSQLite:   "data/sql/migrations/sqlite",
}

// DialectTree is the validated migration directory for one dialect.
type DialectTree struct {
	Dialect    string
	Path       string
	FS         fs.FS
	Migrations []string
}

type Registration struct {
	SourceLabel string
	Dialects    []string
	Trees       []DialectTree
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*registerConfig)

type registerConfig struct {
	label    string
	dialects []string
	source   fs.FS
}

func WithSourceLabel(label string) Option {
	return func(c *registerConfig) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			c.label = trimmed
		}
	}
}

// WithDialects limits registration to the given dialects.
func WithDialects(dialects ...string) Option {
	return func(c *registerConfig) {
		next := make([]string, 0, len(dialects))
		for _, dialect := range dialects {
			dialect = strings.TrimSpace(strings.ToLower(dialect))
			if dialect == "" || slices.Contains(next, dialect) {
				continue
			}
			next = append(next, dialect)
		}
		if len(next) > 0 {
			c.dialects = next
		}
	}
}

// WithSource replaces the embedded migrations with root, which must hold the
// same data/sql/migrations layout.
func WithSource(root fs.FS) Option {
	return func(c *registerConfig) {
		if root != nil {
			c.source = root
		}
	}
}

// Trees resolves and validates the migration tree of every known dialect.
func Trees(root fs.FS) ([]DialectTree, error) {
	if root == nil {
		root = broker.GetMigrationsFS()
	}
	trees := make([]DialectTree, 0, len(dialectPaths))
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		tree, err := resolveTree(root, dialect)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

// Register validates the selected dialect trees and hands each to registerFn,
// typically persistence.Client.RegisterSQLMigrations.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	cfg := registerConfig{
		label:    SourceLabel,
		dialects: []string{DialectPostgres, DialectSQLite},
		source:   broker.GetMigrationsFS(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	reg := Registration{SourceLabel: cfg.label, Dialects: cfg.dialects}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	for _, dialect := range cfg.dialects {
		tree, err := resolveTree(cfg.source, dialect)
		if err != nil {
			return reg, err
		}
		reg.Trees = append(reg.Trees, tree)
	}
	for _, tree := range reg.Trees {
		if err := registerFn(ctx, tree.Dialect, reg.SourceLabel, tree.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", tree.Dialect, tree.Path, err)
		}
	}
	return reg, nil
}

func resolveTree(root fs.FS, dialect string) (DialectTree, error) {
	path, ok := dialectPaths[dialect]
	if !ok {
		return DialectTree{}, fmt.Errorf("migrations: dialect %q is not supported", dialect)
	}
	sub, err := fs.Sub(root, path)
	if err != nil {
		return DialectTree{}, fmt.Errorf("migrations: resolve %s tree %s: %w", dialect, path, err)
	}
	names, err := validateTree(sub, dialect, path)
	if err != nil {
		return DialectTree{}, err
	}
	return DialectTree{Dialect: dialect, Path: path, FS: sub, Migrations: names}, nil
}

// validateTree requires every migration in the tree to come as an up/down
// pair and every Schema step to be present with SQL in both directions.
func validateTree(fsys fs.FS, dialect string, path string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migrations: read %s tree %s: %w", dialect, path, err)
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, upSuffix):
			ups[strings.TrimSuffix(name, upSuffix)] = true
		case strings.HasSuffix(name, downSuffix):
			downs[strings.TrimSuffix(name, downSuffix)] = true
		}
	}

	names := make([]string, 0, len(ups))
	for name := range ups {
		if !downs[name] {
			return nil, fmt.Errorf("migrations: %s migration %s has no down file", dialect, name)
		}
		names = append(names, name)
	}
	for name := range downs {
		if !ups[name] {
			return nil, fmt.Errorf("migrations: %s migration %s has no up file", dialect, name)
		}
	}

	for _, step := range Schema {
		if !ups[step.Name] {
			return nil, fmt.Errorf("migrations: %s tree %s is missing %s", dialect, path, step.Name)
		}
		for _, suffix := range []string{upSuffix, downSuffix} {
			content, err := fs.ReadFile(fsys, step.Name+suffix)
			if err != nil {
				return nil, fmt.Errorf("migrations: read %s %s: %w", dialect, step.Name+suffix, err)
			}
			if strings.TrimSpace(string(content)) == "" {
				return nil, fmt.Errorf("migrations: %s %s is empty", dialect, step.Name+suffix)
			}
		}
	}

	sort.Strings(names)
	return names, nil
}
