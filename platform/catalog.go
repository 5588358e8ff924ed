package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goliatone/go-resource-broker/core"
	"gopkg.in/yaml.v3"
)

// HandlerEntry is one installed component and the actions it answers.
// MimeTypes may use wildcards such as "image/*". An entry without MimeTypes
// only answers untyped requests.
type HandlerEntry struct {
	Component string   `yaml:"component"`
	Package   string   `yaml:"package"`
	Actions   []string `yaml:"actions"`
	MimeTypes []string `yaml:"mime_types"`
	Priority  int      `yaml:"priority"`
}

type CatalogFile struct {
	Version  int            `yaml:"version"`
	Handlers []HandlerEntry `yaml:"handlers"`
}

// Catalog answers handler enumeration from a list of installed entries.
// Results are ordered by priority, then by install order.
type Catalog struct {
	mu      sync.RWMutex
	entries []HandlerEntry
}

func NewCatalog(entries ...HandlerEntry) (*Catalog, error) {
	catalog := &Catalog{}
	for _, entry := range entries {
		if err := catalog.Install(entry); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: read catalog %s: %w", path, err)
	}
	return LoadCatalog(bytes.NewReader(raw))
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return NewCatalog()
		}
		return nil, fmt.Errorf("platform: decode catalog: %w", err)
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("platform: catalog must be a single yaml document")
		}
		return nil, fmt.Errorf("platform: decode catalog: %w", err)
	}
	if file.Version > 1 {
		return nil, fmt.Errorf("platform: catalog version %d is not supported", file.Version)
	}
	return NewCatalog(file.Handlers...)
}

func (c *Catalog) Install(entry HandlerEntry) error {
	normalized, err := normalizeEntry(entry)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.entries {
		if existing.Component == normalized.Component {
			return fmt.Errorf("platform: component %s is already installed", normalized.Component)
		}
	}
	c.entries = append(c.entries, normalized)
	return nil
}

func (c *Catalog) Uninstall(component string) bool {
	component = strings.TrimSpace(component)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.entries {
		if existing.Component == component {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Catalog) Entries() []HandlerEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]HandlerEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) EnumerateHandlers(ctx context.Context, action string, typeFilter string) ([]core.HandlerInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, fmt.Errorf("platform: action is required")
	}
	typeFilter = strings.ToLower(strings.TrimSpace(typeFilter))

	c.mu.RLock()
	matched := make([]HandlerEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		if !containsFold(entry.Actions, action) {
			continue
		}
		ok, err := matchesType(entry.MimeTypes, typeFilter)
		if err != nil {
			c.mu.RUnlock()
			return nil, err
		}
		if ok {
			matched = append(matched, entry)
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority > matched[j].Priority
	})
	out := make([]core.HandlerInfo, 0, len(matched))
	for _, entry := range matched {
		out = append(out, core.HandlerInfo{Component: entry.Component, Package: entry.Package})
	}
	return out, nil
}

// matchesType treats both sides as patterns so a request for "image/*" finds
// a handler declaring "image/png" and the reverse.
func matchesType(declared []string, typeFilter string) (bool, error) {
	if typeFilter == "" {
		return len(declared) == 0, nil
	}
	if !doublestar.ValidatePattern(typeFilter) {
		return false, fmt.Errorf("platform: content type filter %q is invalid", typeFilter)
	}
	for _, mimeType := range declared {
		if ok, _ := doublestar.Match(mimeType, typeFilter); ok {
			return true, nil
		}
		if ok, _ := doublestar.Match(typeFilter, mimeType); ok {
			return true, nil
		}
	}
	return false, nil
}

func normalizeEntry(entry HandlerEntry) (HandlerEntry, error) {
	entry.Component = strings.TrimSpace(entry.Component)
	entry.Package = strings.TrimSpace(entry.Package)
	if entry.Component == "" {
		return HandlerEntry{}, fmt.Errorf("platform: handler component is required")
	}
	if entry.Package == "" {
		if idx := strings.LastIndex(entry.Component, "/"); idx > 0 {
			entry.Package = entry.Component[:idx]
		} else {
			entry.Package = entry.Component
		}
	}
	actions := make([]string, 0, len(entry.Actions))
	for _, action := range entry.Actions {
		if trimmed := strings.TrimSpace(action); trimmed != "" {
			actions = append(actions, trimmed)
		}
	}
	if len(actions) == 0 {
		return HandlerEntry{}, fmt.Errorf("platform: handler %s must declare at least one action", entry.Component)
	}
	entry.Actions = actions
	mimeTypes := make([]string, 0, len(entry.MimeTypes))
	for _, mimeType := range entry.MimeTypes {
		trimmed := strings.ToLower(strings.TrimSpace(mimeType))
		if trimmed == "" {
			continue
		}
		if !strings.Contains(trimmed, "/") || !doublestar.ValidatePattern(trimmed) {
			return HandlerEntry{}, fmt.Errorf("platform: handler %s mime type %q is invalid", entry.Component, mimeType)
		}
		mimeTypes = append(mimeTypes, trimmed)
	}
	entry.MimeTypes = mimeTypes
	return entry, nil
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}
