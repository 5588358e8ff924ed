package core

import (
	"context"
	"io"

	glog "github.com/goliatone/go-logger/glog"
)

// HandlerInfo is one installed handler as reported by the platform capability
// query, in platform ranking order.
type HandlerInfo struct {
	Component string
	Package   string
}

type HandlerEnumerator interface {
	EnumerateHandlers(ctx context.Context, action string, typeFilter string) ([]HandlerInfo, error)
}

type PermissionAPI interface {
	CheckPermission(ctx context.Context, permissionID string) (bool, error)
	RequestPermission(ctx context.Context, permissionID string, grantToken int64) error
}

// Dispatcher hands the chooser to the external process. It must not block
// until the provider finishes; completion arrives through CompleteDispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, target DispatchTarget, correlationToken int64) error
}

// ContentCursor is a lookup handle over the rows produced for a content
// reference. Callers must Close it.
type ContentCursor interface {
	Next() bool
	Value(column string) (string, bool, error)
	Err() error
	Close() error
}

type ContentResolver interface {
	Query(ctx context.Context, reference string, columns []string) (ContentCursor, error)
}

type ContentOpener interface {
	Open(ctx context.Context, reference string) (io.Closer, error)
}

type SinkAllocator interface {
	Allocate(ctx context.Context, correlationToken int64) (PendingOutputSink, error)
	Discard(ctx context.Context, sink PendingOutputSink) error
}

type PendingStore interface {
	Save(ctx context.Context, pending PendingDispatch) error
	Get(ctx context.Context, token int64) (PendingDispatch, error)
	UpdateState(ctx context.Context, token int64, state DispatchState) error
	Consume(ctx context.Context, token int64) (PendingDispatch, error)
}

type ResultListener interface {
	OnResourceResolved(ctx context.Context, outcome ResolveOutcome)
}

type PermissionListener interface {
	OnPermissionResolved(ctx context.Context, outcome PermissionOutcome)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
