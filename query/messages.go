package query

import (
	"strings"

	"github.com/goliatone/go-resource-broker/core"
)

const (
	TypePreviewProviders = "broker.query.providers.preview"
	TypePermissionStatus = "broker.query.permission.status"
	TypeProbePermission  = "broker.query.permission.probe"
	TypePendingDispatch  = "broker.query.dispatch.pending"
)

type PreviewProvidersMessage struct {
	Request core.ResourceRequest
}

func (PreviewProvidersMessage) Type() string { return TypePreviewProviders }

func (m PreviewProvidersMessage) Validate() error {
	return core.WrapValidationError(m.Request.Validate(), "query: invalid resource request")
}

type PermissionStatusMessage struct {
	PermissionID string
}

func (PermissionStatusMessage) Type() string { return TypePermissionStatus }

func (m PermissionStatusMessage) Validate() error {
	if strings.TrimSpace(m.PermissionID) == "" {
		return core.NewFieldValidationError("query: validation failed", "permission_id", "permission id is required")
	}
	return nil
}

type ProbePermissionMessage struct {
	PermissionID string
}

func (ProbePermissionMessage) Type() string { return TypeProbePermission }

func (m ProbePermissionMessage) Validate() error {
	if strings.TrimSpace(m.PermissionID) == "" {
		return core.NewFieldValidationError("query: validation failed", "permission_id", "permission id is required")
	}
	return nil
}

type PendingDispatchMessage struct {
	CorrelationToken int64
}

func (PendingDispatchMessage) Type() string { return TypePendingDispatch }

func (m PendingDispatchMessage) Validate() error {
	if m.CorrelationToken <= 0 {
		return core.NewFieldValidationError("query: validation failed", "correlation_token", "correlation token is required")
	}
	return nil
}
