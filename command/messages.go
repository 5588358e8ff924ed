package command

import (
	"strings"

	"github.com/goliatone/go-resource-broker/core"
)

const (
	TypeRequestResource    = "broker.command.resource.request"
	TypeCompleteDispatch   = "broker.command.dispatch.complete"
	TypeCompletePermission = "broker.command.permission.complete"
	TypeRetryPermission    = "broker.command.permission.retry"
)

type RequestResourceMessage struct {
	Request core.ResourceRequest
}

func (RequestResourceMessage) Type() string { return TypeRequestResource }

func (m RequestResourceMessage) Validate() error {
	return core.WrapValidationError(m.Request.Validate(), "command: invalid resource request")
}

// RequestResourceResult is stored in the result collector once the chooser has
// been dispatched.
type RequestResourceResult struct {
	CorrelationToken int64
}

type CompleteDispatchMessage struct {
	CorrelationToken int64
	Signal           core.CompletionSignal
	Handle           core.ResultHandle
}

func (CompleteDispatchMessage) Type() string { return TypeCompleteDispatch }

func (m CompleteDispatchMessage) Validate() error {
	if m.CorrelationToken <= 0 {
		return core.NewFieldValidationError("command: validation failed", "correlation_token", "correlation token is required")
	}
	switch m.Signal.Status {
	case core.CompletionSuccess, core.CompletionCancelled, core.CompletionAbnormal:
	default:
		return core.NewFieldValidationError("command: validation failed", "signal", "completion status is invalid")
	}
	return nil
}

type CompletePermissionMessage struct {
	GrantToken int64
	Granted    bool
}

func (CompletePermissionMessage) Type() string { return TypeCompletePermission }

func (m CompletePermissionMessage) Validate() error {
	if m.GrantToken <= 0 {
		return core.NewFieldValidationError("command: validation failed", "grant_token", "grant token is required")
	}
	return nil
}

type RetryPermissionMessage struct {
	PermissionID string
}

func (RetryPermissionMessage) Type() string { return TypeRetryPermission }

func (m RetryPermissionMessage) Validate() error {
	if strings.TrimSpace(m.PermissionID) == "" {
		return core.NewFieldValidationError("command: validation failed", "permission_id", "permission id is required")
	}
	return nil
}
