package query

import (
	"context"

	"github.com/goliatone/go-resource-broker/core"
)

type ProviderPreviewer interface {
	PreviewProviders(ctx context.Context, req core.ResourceRequest) ([]core.ProviderDescriptor, error)
}

type PermissionReader interface {
	PermissionStatus(ctx context.Context, permissionID string) (core.PermissionRequestState, error)
	ProbePermission(ctx context.Context, permissionID string) (core.ProbeResult, error)
}

type PendingDispatchReader interface {
	PendingDispatch(ctx context.Context, token int64) (core.PendingDispatch, error)
}

type PreviewProvidersQuery struct {
	reader ProviderPreviewer
}

func NewPreviewProvidersQuery(reader ProviderPreviewer) *PreviewProvidersQuery {
	return &PreviewProvidersQuery{reader: reader}
}

func (q *PreviewProvidersQuery) Query(ctx context.Context, msg PreviewProvidersMessage) ([]core.ProviderDescriptor, error) {
	if q == nil || q.reader == nil {
		return nil, core.NewDependencyError("query: provider previewer is required")
	}
	return q.reader.PreviewProviders(ctx, msg.Request)
}

type PermissionStatusQuery struct {
	reader PermissionReader
}

func NewPermissionStatusQuery(reader PermissionReader) *PermissionStatusQuery {
	return &PermissionStatusQuery{reader: reader}
}

func (q *PermissionStatusQuery) Query(ctx context.Context, msg PermissionStatusMessage) (core.PermissionRequestState, error) {
	if q == nil || q.reader == nil {
		return "", core.NewDependencyError("query: permission reader is required")
	}
	return q.reader.PermissionStatus(ctx, msg.PermissionID)
}

type ProbePermissionQuery struct {
	reader PermissionReader
}

func NewProbePermissionQuery(reader PermissionReader) *ProbePermissionQuery {
	return &ProbePermissionQuery{reader: reader}
}

func (q *ProbePermissionQuery) Query(ctx context.Context, msg ProbePermissionMessage) (core.ProbeResult, error) {
	if q == nil || q.reader == nil {
		return core.ProbeResult{}, core.NewDependencyError("query: permission reader is required")
	}
	return q.reader.ProbePermission(ctx, msg.PermissionID)
}

type PendingDispatchQuery struct {
	reader PendingDispatchReader
}

func NewPendingDispatchQuery(reader PendingDispatchReader) *PendingDispatchQuery {
	return &PendingDispatchQuery{reader: reader}
}

func (q *PendingDispatchQuery) Query(ctx context.Context, msg PendingDispatchMessage) (core.PendingDispatch, error) {
	if q == nil || q.reader == nil {
		return core.PendingDispatch{}, core.NewDependencyError("query: pending dispatch reader is required")
	}
	return q.reader.PendingDispatch(ctx, msg.CorrelationToken)
}
