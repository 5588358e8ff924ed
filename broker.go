package broker

import (
	"github.com/goliatone/go-resource-broker/core"
	sqlstore "github.com/goliatone/go-resource-broker/store/sql"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type ResourceRequest = core.ResourceRequest
type ResultHandle = core.ResultHandle
type CompletionSignal = core.CompletionSignal
type ResolveOutcome = core.ResolveOutcome
type PermissionOutcome = core.PermissionOutcome
type CanonicalLocator = core.CanonicalLocator
type ProviderDescriptor = core.ProviderDescriptor
type DispatchTarget = core.DispatchTarget

type HandlerEnumerator = core.HandlerEnumerator
type PermissionAPI = core.PermissionAPI
type Dispatcher = core.Dispatcher
type ContentResolver = core.ContentResolver
type ContentOpener = core.ContentOpener
type ResultListener = core.ResultListener
type PermissionListener = core.PermissionListener

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithHandlerEnumerator  = core.WithHandlerEnumerator
	WithPermissionAPI      = core.WithPermissionAPI
	WithDispatcher         = core.WithDispatcher
	WithContentResolver    = core.WithContentResolver
	WithContentOpener      = core.WithContentOpener
	WithSinkAllocator      = core.WithSinkAllocator
	WithPendingStore       = core.WithPendingStore
	WithResultListener     = core.WithResultListener
	WithPermissionListener = core.WithPermissionListener
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}

// WithSQLStores keeps pending dispatches in the database and answers content
// lookups and access probes from the content index built by factory.
func WithSQLStores(factory *sqlstore.RepositoryFactory) Option {
	if factory == nil || factory.ContentIndex() == nil || factory.PendingStore() == nil {
		return core.WithOptions()
	}
	index := factory.ContentIndex()
	return core.WithOptions(
		core.WithPendingStore(factory.PendingStore()),
		core.WithContentResolver(index),
		core.WithContentOpener(index),
	)
}
