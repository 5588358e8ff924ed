package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-resource-broker/core"
)

type BrokerService interface {
	RequestResource(ctx context.Context, req core.ResourceRequest) (int64, error)
	CompleteDispatch(ctx context.Context, token int64, signal core.CompletionSignal, handle core.ResultHandle) (core.ResolveOutcome, error)
	CompletePermission(ctx context.Context, grantToken int64, granted bool) (core.PermissionOutcome, error)
	RetryPermission(ctx context.Context, permissionID string) error
}

type RequestResourceCommand struct {
	service BrokerService
}

func NewRequestResourceCommand(service BrokerService) *RequestResourceCommand {
	return &RequestResourceCommand{service: service}
}

func (c *RequestResourceCommand) Execute(ctx context.Context, msg RequestResourceMessage) error {
	if c == nil || c.service == nil {
		return core.NewDependencyError("command: request resource service is required")
	}
	token, err := c.service.RequestResource(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, RequestResourceResult{CorrelationToken: token})
	return nil
}

type CompleteDispatchCommand struct {
	service BrokerService
}

func NewCompleteDispatchCommand(service BrokerService) *CompleteDispatchCommand {
	return &CompleteDispatchCommand{service: service}
}

func (c *CompleteDispatchCommand) Execute(ctx context.Context, msg CompleteDispatchMessage) error {
	if c == nil || c.service == nil {
		return core.NewDependencyError("command: complete dispatch service is required")
	}
	out, err := c.service.CompleteDispatch(ctx, msg.CorrelationToken, msg.Signal, msg.Handle)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompletePermissionCommand struct {
	service BrokerService
}

func NewCompletePermissionCommand(service BrokerService) *CompletePermissionCommand {
	return &CompletePermissionCommand{service: service}
}

func (c *CompletePermissionCommand) Execute(ctx context.Context, msg CompletePermissionMessage) error {
	if c == nil || c.service == nil {
		return core.NewDependencyError("command: complete permission service is required")
	}
	out, err := c.service.CompletePermission(ctx, msg.GrantToken, msg.Granted)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RetryPermissionCommand struct {
	service BrokerService
}

func NewRetryPermissionCommand(service BrokerService) *RetryPermissionCommand {
	return &RetryPermissionCommand{service: service}
}

func (c *RetryPermissionCommand) Execute(ctx context.Context, msg RetryPermissionMessage) error {
	if c == nil || c.service == nil {
		return core.NewDependencyError("command: retry permission service is required")
	}
	return c.service.RetryPermission(ctx, msg.PermissionID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
