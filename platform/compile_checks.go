package platform

import "github.com/goliatone/go-resource-broker/core"

var (
	_ core.HandlerEnumerator = (*Catalog)(nil)
	_ core.PermissionAPI     = (*PermissionTable)(nil)
	_ core.Dispatcher        = (*Dispatcher)(nil)
	_ core.ContentResolver   = (*ContentTable)(nil)
	_ core.ContentOpener     = (*ContentTable)(nil)
)
