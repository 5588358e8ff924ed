package core

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config             Config
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

	probe      *PermissionProbe
	registry   *ProviderRegistry
	negotiator *PermissionNegotiator
	selector   *SelectionBroker
	resolver   *ResultResolver

	tokens atomic.Int64
}

type ServiceDependencies struct {
	Logger             Logger
	LoggerProvider     LoggerProvider
	MetricsRecorder    MetricsRecorder
	ErrorFactory       ErrorFactory
	ErrorMapper        ErrorMapper
	ConfigProvider     ConfigProvider
	OptionsResolver    OptionsResolver
	HandlerEnumerator  HandlerEnumerator
	PermissionAPI      PermissionAPI
	Dispatcher         Dispatcher
	ContentResolver    ContentResolver
	ContentOpener      ContentOpener
	SinkAllocator      SinkAllocator
	PendingStore       PendingStore
	ResultListener     ResultListener
	PermissionListener PermissionListener
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("broker", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("broker"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.pendingStore == nil {
		builder.pendingStore = NewMemoryPendingStore()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.sinkAllocator == nil {
		builder.sinkAllocator = NewDirectorySinkAllocator(finalConfig.Sink)
	}

	svc := &Service{
		config:             finalConfig,
		logger:             logger,
		loggerProvider:     provider,
		metricsRecorder:    builder.metricsRecorder,
		errorFactory:       builder.errorFactory,
		errorMapper:        builder.errorMapper,
		configProvider:     builder.configProvider,
		optionsResolver:    builder.optionsResolver,
		handlerEnumerator:  builder.handlerEnumerator,
		permissionAPI:      builder.permissionAPI,
		dispatcher:         builder.dispatcher,
		contentResolver:    builder.contentResolver,
		contentOpener:      builder.contentOpener,
		sinkAllocator:      builder.sinkAllocator,
		pendingStore:       builder.pendingStore,
		resultListener:     builder.resultListener,
		permissionListener: builder.permissionListener,
	}
	first := finalConfig.Correlation.FirstToken
	if first <= 0 {
		first = 1
	}
	svc.tokens.Store(first - 1)

	svc.probe = NewPermissionProbe(finalConfig, builder.permissionAPI, builder.contentOpener)
	svc.registry = NewProviderRegistry(finalConfig, builder.handlerEnumerator)
	svc.negotiator = NewPermissionNegotiator(svc.probe, builder.permissionAPI, svc.nextToken)
	svc.selector = NewSelectionBroker(finalConfig.Chooser.Title)
	svc.resolver = NewResultResolver(finalConfig, builder.contentResolver)
	return svc, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:             s.logger,
		LoggerProvider:     s.loggerProvider,
		MetricsRecorder:    s.metricsRecorder,
		ErrorFactory:       s.errorFactory,
		ErrorMapper:        s.errorMapper,
		ConfigProvider:     s.configProvider,
		OptionsResolver:    s.optionsResolver,
		HandlerEnumerator:  s.handlerEnumerator,
		PermissionAPI:      s.permissionAPI,
		Dispatcher:         s.dispatcher,
		ContentResolver:    s.contentResolver,
		ContentOpener:      s.contentOpener,
		SinkAllocator:      s.sinkAllocator,
		PendingStore:       s.pendingStore,
		ResultListener:     s.resultListener,
		PermissionListener: s.permissionListener,
	}
}

func (s *Service) Probe() *PermissionProbe {
	if s == nil {
		return nil
	}
	return s.probe
}

func (s *Service) Registry() *ProviderRegistry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Negotiator() *PermissionNegotiator {
	if s == nil {
		return nil
	}
	return s.negotiator
}

func (s *Service) Selector() *SelectionBroker {
	if s == nil {
		return nil
	}
	return s.selector
}

func (s *Service) Resolver() *ResultResolver {
	if s == nil {
		return nil
	}
	return s.resolver
}

func (s *Service) nextToken() int64 {
	return s.tokens.Add(1)
}

// nextFreeToken skips tokens that a durable pending store still holds from an
// earlier run.
func (s *Service) nextFreeToken(ctx context.Context) (int64, error) {
	for {
		token := s.nextToken()
		_, err := s.pendingStore.Get(ctx, token)
		if err == nil {
			continue
		}
		if IsDispatchNotPending(err) {
			return token, nil
		}
		return 0, err
	}
}

// RequestResource discovers providers, negotiates their permissions and hands
// the chooser to the dispatcher. It returns as soon as the dispatch is issued;
// the result arrives later through CompleteDispatch.
func (s *Service) RequestResource(ctx context.Context, req ResourceRequest) (token int64, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"content_type":    req.ContentTypeFilter,
		"include_capture": req.IncludeCaptureProviders,
		"include_browse":  req.IncludeBrowseProviders,
	}
	defer func() {
		if token != 0 {
			fields["correlation_token"] = token
		}
		s.observeOperation(ctx, startedAt, "request_resource", err, fields)
	}()

	if s == nil {
		return 0, fmt.Errorf("core: service is nil")
	}
	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return 0, err
	}
	if s.dispatcher == nil {
		err = s.mapError(fmt.Errorf("core: dispatcher is not configured"))
		return 0, err
	}

	req.ContentTypeFilter = strings.TrimSpace(req.ContentTypeFilter)
	token = req.CorrelationToken
	if token == 0 {
		if token, err = s.nextFreeToken(ctx); err != nil {
			err = s.mapError(err)
			return 0, err
		}
	} else if _, getErr := s.pendingStore.Get(ctx, token); getErr == nil {
		err = s.mapError(fmt.Errorf("core: correlation token %d is already outstanding", token))
		return 0, err
	} else if !IsDispatchNotPending(getErr) {
		err = s.mapError(getErr)
		return 0, err
	}
	req.CorrelationToken = token

	discovered, err := s.registry.DiscoverForRequest(ctx, req)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}
	negotiated, err := s.negotiator.EnsureAuthorized(ctx, discovered)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}
	fields["discovered"] = len(discovered)
	fields["cleared"] = len(negotiated.Cleared)
	if len(negotiated.PendingRequests) > 0 {
		fields["pending_permissions"] = strings.Join(negotiated.PendingRequests, ",")
	}
	if len(negotiated.Denied) > 0 {
		fields["denied_permissions"] = strings.Join(negotiated.Denied, ",")
	}
	if len(negotiated.Cleared) == 0 {
		noProviders := newNoProvidersError(req.ContentTypeFilter)
		s.logWarn(ctx, "no providers available, dispatching placeholder", map[string]any{
			"correlation_token": token,
			"content_type":      req.ContentTypeFilter,
			"text_code":         noProviders.TextCode,
		})
	}

	sink, err := s.sinkAllocator.Allocate(ctx, token)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}
	target := s.selector.BuildChooserTitled(req.ChooserTitle, negotiated.Cleared, sink)

	if err = s.pendingStore.Save(ctx, PendingDispatch{
		Token:     token,
		Request:   req,
		Sink:      sink,
		Target:    target,
		State:     DispatchAwaitingDispatch,
		CreatedAt: startedAt,
	}); err != nil {
		s.discardSink(ctx, sink)
		err = s.mapError(err)
		return 0, err
	}

	if dispatchErr := s.dispatcher.Dispatch(ctx, target, token); dispatchErr != nil {
		_, _ = s.pendingStore.Consume(ctx, token)
		s.discardSink(ctx, sink)
		err = s.mapError(wrapExternalProviderError(dispatchErr, "core: dispatch failed"))
		return 0, err
	}
	// The dispatcher may already have delivered the completion.
	_ = s.pendingStore.UpdateState(ctx, token, DispatchAwaitingExternalResult)

	return token, nil
}

// CompleteDispatch is the platform callback for a finished dispatch. Callbacks
// for tokens that are not pending are ignored; a pending store failure is
// returned and leaves the dispatch in place.
func (s *Service) CompleteDispatch(
	ctx context.Context,
	token int64,
	signal CompletionSignal,
	handle ResultHandle,
) (outcome ResolveOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"correlation_token": token,
		"signal":            string(signal.Status),
	}
	defer func() {
		fields["outcome"] = string(outcome.State)
		if outcome.Ignored {
			fields["outcome"] = "ignored"
		}
		s.observeOperation(ctx, startedAt, "complete_dispatch", err, fields)
	}()

	if s == nil {
		return ResolveOutcome{}, fmt.Errorf("core: service is nil")
	}
	pending, consumeErr := s.pendingStore.Consume(ctx, token)
	if consumeErr != nil {
		if !IsDispatchNotPending(consumeErr) {
			err = s.mapError(consumeErr)
			return ResolveOutcome{CorrelationToken: token}, err
		}
		s.logWarn(ctx, "ignoring dispatch callback for unknown correlation token", map[string]any{
			"correlation_token": token,
		})
		return ResolveOutcome{CorrelationToken: token, Ignored: true}, nil
	}

	outcome = s.resolver.Resolve(ctx, token, signal, handle, pending.Sink)
	if outcome.Err != nil {
		outcome.Err = s.mapError(outcome.Err)
		fields["error_code"] = textCode(outcome.Err)
	}
	if outcome.Locator == nil || outcome.Locator.OriginKind != OriginKindCaptured {
		s.discardSink(ctx, pending.Sink)
	}
	if outcome.State == DispatchCancelled && IsExternalProviderError(outcome.Err) {
		s.logError(ctx, "provider completed abnormally", map[string]any{
			"correlation_token": token,
			"code":              signal.Code,
		})
	}

	if s.resultListener != nil {
		s.resultListener.OnResourceResolved(ctx, outcome)
	}
	return outcome, nil
}

// CompletePermission is the platform callback for a grant request. The caller
// is expected to request the resource again after a grant succeeds.
func (s *Service) CompletePermission(
	ctx context.Context,
	grantToken int64,
	granted bool,
) (outcome PermissionOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"grant_token": grantToken,
		"granted":     granted,
	}
	defer func() {
		fields["permission_id"] = outcome.PermissionID
		fields["outcome"] = string(outcome.State)
		if outcome.Ignored {
			fields["outcome"] = "ignored"
		}
		s.observeOperation(ctx, startedAt, "complete_permission", err, fields)
	}()

	if s == nil {
		return PermissionOutcome{}, fmt.Errorf("core: service is nil")
	}
	outcome, matched := s.negotiator.Complete(grantToken, granted)
	if !matched {
		s.logWarn(ctx, "ignoring permission callback for unknown grant token", map[string]any{
			"grant_token": grantToken,
		})
		return outcome, nil
	}
	if outcome.State == PermissionDenied {
		outcome.Err = s.mapError(newPermissionDeniedError(outcome.PermissionID))
	}
	if s.permissionListener != nil {
		s.permissionListener.OnPermissionResolved(ctx, outcome)
	}
	return outcome, nil
}

func (s *Service) RetryPermission(ctx context.Context, permissionID string) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if err := s.negotiator.Retry(permissionID); err != nil {
		return s.mapError(err)
	}
	s.logInfo(ctx, "permission request reset", map[string]any{"permission_id": permissionID})
	return nil
}

func (s *Service) PermissionStatus(_ context.Context, permissionID string) (PermissionRequestState, error) {
	if s == nil {
		return "", fmt.Errorf("core: service is nil")
	}
	if strings.TrimSpace(permissionID) == "" {
		return "", s.mapError(fmt.Errorf("core: permission id is required"))
	}
	return s.negotiator.State(permissionID), nil
}

// ProbePermission reports whether permissionID currently blocks its providers.
// It issues no grant request.
func (s *Service) ProbePermission(ctx context.Context, permissionID string) (ProbeResult, error) {
	if s == nil {
		return ProbeResult{}, fmt.Errorf("core: service is nil")
	}
	if strings.TrimSpace(permissionID) == "" {
		return ProbeResult{}, s.mapError(fmt.Errorf("core: permission id is required"))
	}
	return s.probe.Probe(ctx, permissionID), nil
}

func (s *Service) PendingDispatch(ctx context.Context, token int64) (PendingDispatch, error) {
	if s == nil {
		return PendingDispatch{}, fmt.Errorf("core: service is nil")
	}
	pending, err := s.pendingStore.Get(ctx, token)
	if err != nil {
		return PendingDispatch{}, s.mapError(err)
	}
	return pending, nil
}

// PreviewProviders runs discovery only. It issues no grant requests.
func (s *Service) PreviewProviders(ctx context.Context, req ResourceRequest) ([]ProviderDescriptor, error) {
	if s == nil {
		return nil, fmt.Errorf("core: service is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, s.mapError(err)
	}
	descriptors, err := s.registry.DiscoverForRequest(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return descriptors, nil
}

func (s *Service) discardSink(ctx context.Context, sink PendingOutputSink) {
	if s == nil || s.sinkAllocator == nil {
		return
	}
	if err := s.sinkAllocator.Discard(ctx, sink); err != nil {
		s.logError(ctx, "discard sink failed", map[string]any{
			"correlation_token": sink.CorrelationToken,
			"error":             err.Error(),
		})
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func textCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
