package sqlstore

import "github.com/goliatone/go-resource-broker/core"

var (
	_ core.ContentResolver = (*ContentIndex)(nil)
	_ core.ContentOpener   = (*ContentIndex)(nil)
	_ core.ContentCursor   = (*rowsCursor)(nil)
	_ core.PendingStore    = (*PendingDispatchStore)(nil)
)
