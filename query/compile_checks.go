package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-resource-broker/core"
)

var (
	_ gocmd.Querier[PreviewProvidersMessage, []core.ProviderDescriptor]   = (*PreviewProvidersQuery)(nil)
	_ gocmd.Querier[PermissionStatusMessage, core.PermissionRequestState] = (*PermissionStatusQuery)(nil)
	_ gocmd.Querier[ProbePermissionMessage, core.ProbeResult]             = (*ProbePermissionQuery)(nil)
	_ gocmd.Querier[PendingDispatchMessage, core.PendingDispatch]         = (*PendingDispatchQuery)(nil)
)
