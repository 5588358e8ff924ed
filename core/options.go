package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig      Config
	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorFactory       ErrorFactory
	errorMapper        ErrorMapper
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	handlerEnumerator  HandlerEnumerator
	permissionAPI      PermissionAPI
	dispatcher         Dispatcher
	contentResolver    ContentResolver
	contentOpener      ContentOpener
	sinkAllocator      SinkAllocator
	pendingStore       PendingStore
	resultListener     ResultListener
	permissionListener PermissionListener
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithHandlerEnumerator(enumerator HandlerEnumerator) Option {
	return func(b *serviceBuilder) {
		b.handlerEnumerator = enumerator
	}
}

func WithPermissionAPI(api PermissionAPI) Option {
	return func(b *serviceBuilder) {
		b.permissionAPI = api
	}
}

func WithDispatcher(dispatcher Dispatcher) Option {
	return func(b *serviceBuilder) {
		b.dispatcher = dispatcher
	}
}

func WithContentResolver(resolver ContentResolver) Option {
	return func(b *serviceBuilder) {
		b.contentResolver = resolver
	}
}

func WithContentOpener(opener ContentOpener) Option {
	return func(b *serviceBuilder) {
		b.contentOpener = opener
	}
}

func WithSinkAllocator(allocator SinkAllocator) Option {
	return func(b *serviceBuilder) {
		b.sinkAllocator = allocator
	}
}

func WithPendingStore(store PendingStore) Option {
	return func(b *serviceBuilder) {
		b.pendingStore = store
	}
}

func WithResultListener(listener ResultListener) Option {
	return func(b *serviceBuilder) {
		b.resultListener = listener
	}
}

func WithPermissionListener(listener PermissionListener) Option {
	return func(b *serviceBuilder) {
		b.permissionListener = listener
	}
}

// WithOptions applies opts in order as a single option.
func WithOptions(options ...Option) Option {
	return func(b *serviceBuilder) {
		for _, opt := range options {
			if opt != nil {
				opt(b)
			}
		}
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("broker", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		pendingStore:    NewMemoryPendingStore(),
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return brokerErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || cfg.Platform.Version != 0 {
		layer["platform"] = map[string]any{
			"version": cfg.Platform.Version,
		}
	}

	authorization := map[string]any{}
	auth := cfg.Authorization
	if includeZero || auth.ThresholdVersion != 0 {
		authorization["threshold_version"] = auth.ThresholdVersion
	}
	putString(authorization, "capture_permission", auth.CapturePermission, includeZero)
	putString(authorization, "content_read_permission", auth.ContentReadPermission, includeZero)
	putString(authorization, "probe_reference", auth.ProbeReference, includeZero)
	if includeZero || len(auth.DeclaredPermissions) > 0 {
		authorization["declared_permissions"] = append([]string(nil), auth.DeclaredPermissions...)
	}
	if includeZero || len(auth.ProbedPermissions) > 0 {
		authorization["probed_permissions"] = append([]string(nil), auth.ProbedPermissions...)
	}
	if len(authorization) > 0 {
		layer["authorization"] = authorization
	}

	actions := map[string]any{}
	putString(actions, "capture", cfg.Actions.Capture, includeZero)
	putString(actions, "get_content", cfg.Actions.GetContent, includeZero)
	putString(actions, "pick", cfg.Actions.Pick, includeZero)
	if len(actions) > 0 {
		layer["actions"] = actions
	}

	putSection(layer, "providers", "builtin_browser", cfg.Providers.BuiltinBrowser, includeZero)
	putSection(layer, "chooser", "title", cfg.Chooser.Title, includeZero)
	putSection(layer, "content", "path_column", cfg.Content.PathColumn, includeZero)

	sink := map[string]any{}
	putString(sink, "directory", cfg.Sink.Directory, includeZero)
	putString(sink, "extension", cfg.Sink.Extension, includeZero)
	if len(sink) > 0 {
		layer["sink"] = sink
	}

	if includeZero || cfg.Correlation.FirstToken != 0 {
		layer["correlation"] = map[string]any{
			"first_token": cfg.Correlation.FirstToken,
		}
	}
	return layer
}

func putString(section map[string]any, key string, value string, includeZero bool) {
	if includeZero || strings.TrimSpace(value) != "" {
		section[key] = value
	}
}

func putSection(layer map[string]any, name string, key string, value string, includeZero bool) {
	if includeZero || strings.TrimSpace(value) != "" {
		layer[name] = map[string]any{key: value}
	}
}
