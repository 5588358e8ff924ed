package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RequestResourceMessage]    = (*RequestResourceCommand)(nil)
	_ gocmd.Commander[CompleteDispatchMessage]   = (*CompleteDispatchCommand)(nil)
	_ gocmd.Commander[CompletePermissionMessage] = (*CompletePermissionCommand)(nil)
	_ gocmd.Commander[RetryPermissionMessage]    = (*RetryPermissionCommand)(nil)
)
