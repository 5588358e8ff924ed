package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ PendingStore  = (*MemoryPendingStore)(nil)
	_ SinkAllocator = (*DirectorySinkAllocator)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
