package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DirectorySinkAllocator reserves capture destinations under a fixed
// directory. Allocation only names the file; the capture provider creates it.
type DirectorySinkAllocator struct {
	Directory string
	Extension string
}

func NewDirectorySinkAllocator(cfg SinkConfig) *DirectorySinkAllocator {
	return &DirectorySinkAllocator{
		Directory: strings.TrimSpace(cfg.Directory),
		Extension: strings.TrimSpace(cfg.Extension),
	}
}

func (a *DirectorySinkAllocator) Allocate(_ context.Context, correlationToken int64) (PendingOutputSink, error) {
	if a == nil {
		return PendingOutputSink{}, fmt.Errorf("core: sink allocator is not configured")
	}
	dir := a.Directory
	if dir == "" {
		dir = os.TempDir()
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return PendingOutputSink{}, fmt.Errorf("core: resolve sink directory: %w", err)
	}
	ext := a.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := fmt.Sprintf("capture-%d-%s%s", correlationToken, uuid.NewString(), ext)
	return PendingOutputSink{
		CorrelationToken:    correlationToken,
		PreallocatedLocator: filepath.Join(dir, name),
	}, nil
}

// Discard removes whatever a provider may have written to the sink. A sink the
// provider never wrote to is not an error.
func (a *DirectorySinkAllocator) Discard(_ context.Context, sink PendingOutputSink) error {
	path := strings.TrimSpace(sink.PreallocatedLocator)
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("core: discard sink %s: %w", path, err)
	}
	return nil
}

