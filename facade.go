package broker

import (
	"fmt"

	brokercommand "github.com/goliatone/go-resource-broker/command"
	brokerquery "github.com/goliatone/go-resource-broker/query"
)

type CommandQueryService interface {
	brokercommand.BrokerService
	brokerquery.ProviderPreviewer
	brokerquery.PermissionReader
	brokerquery.PendingDispatchReader
}

type Commands struct {
	RequestResource    *brokercommand.RequestResourceCommand
	CompleteDispatch   *brokercommand.CompleteDispatchCommand
	CompletePermission *brokercommand.CompletePermissionCommand
	RetryPermission    *brokercommand.RetryPermissionCommand
}

type Queries struct {
	PreviewProviders *brokerquery.PreviewProvidersQuery
	PermissionStatus *brokerquery.PermissionStatusQuery
	ProbePermission  *brokerquery.ProbePermissionQuery
	PendingDispatch  *brokerquery.PendingDispatchQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("broker: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		RequestResource:    brokercommand.NewRequestResourceCommand(service),
		CompleteDispatch:   brokercommand.NewCompleteDispatchCommand(service),
		CompletePermission: brokercommand.NewCompletePermissionCommand(service),
		RetryPermission:    brokercommand.NewRetryPermissionCommand(service),
	}
	facade.queries = Queries{
		PreviewProviders: brokerquery.NewPreviewProvidersQuery(service),
		PermissionStatus: brokerquery.NewPermissionStatusQuery(service),
		ProbePermission:  brokerquery.NewProbePermissionQuery(service),
		PendingDispatch:  brokerquery.NewPendingDispatchQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
