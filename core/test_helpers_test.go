package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
)

type enumerateCall struct {
	action     string
	typeFilter string
}

type fakeEnumerator struct {
	mu       sync.Mutex
	handlers map[string][]HandlerInfo
	err      error
	calls    []enumerateCall
}

func (e *fakeEnumerator) EnumerateHandlers(_ context.Context, action string, typeFilter string) ([]HandlerInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, enumerateCall{action: action, typeFilter: typeFilter})
	if e.err != nil {
		return nil, e.err
	}
	return append([]HandlerInfo(nil), e.handlers[action]...), nil
}

func (e *fakeEnumerator) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type permissionRequest struct {
	permissionID string
	grantToken   int64
}

type fakePermissionAPI struct {
	mu         sync.Mutex
	granted    map[string]bool
	checkErr    error
	requestErr  error
	requestErrs map[string]error
	requests    []permissionRequest
}

func newFakePermissionAPI(granted ...string) *fakePermissionAPI {
	api := &fakePermissionAPI{granted: map[string]bool{}}
	for _, id := range granted {
		api.granted[id] = true
	}
	return api
}

func (a *fakePermissionAPI) CheckPermission(_ context.Context, permissionID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.checkErr != nil {
		return false, a.checkErr
	}
	return a.granted[permissionID], nil
}

func (a *fakePermissionAPI) RequestPermission(_ context.Context, permissionID string, grantToken int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.requestErr != nil {
		return a.requestErr
	}
	if err := a.requestErrs[permissionID]; err != nil {
		return err
	}
	a.requests = append(a.requests, permissionRequest{permissionID: permissionID, grantToken: grantToken})
	return nil
}

func (a *fakePermissionAPI) grant(permissionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.granted[permissionID] = true
}

func (a *fakePermissionAPI) requested() []permissionRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]permissionRequest(nil), a.requests...)
}

type dispatched struct {
	target DispatchTarget
	token  int64
}

type fakeDispatcher struct {
	mu         sync.Mutex
	err        error
	dispatches []dispatched
	onDispatch func(target DispatchTarget, token int64)
}

func (d *fakeDispatcher) Dispatch(_ context.Context, target DispatchTarget, token int64) error {
	d.mu.Lock()
	if d.err != nil {
		d.mu.Unlock()
		return d.err
	}
	d.dispatches = append(d.dispatches, dispatched{target: target, token: token})
	hook := d.onDispatch
	d.mu.Unlock()
	if hook != nil {
		hook(target, token)
	}
	return nil
}

func (d *fakeDispatcher) last(t *testing.T) dispatched {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.dispatches) == 0 {
		t.Fatalf("expected at least one dispatch")
	}
	return d.dispatches[len(d.dispatches)-1]
}

type fakeCursor struct {
	rows     []map[string]string
	index    int
	iterErr  error
	valueErr error
	closeErr error
	closed   bool
}

func (c *fakeCursor) Next() bool {
	if c.index >= len(c.rows) {
		return false
	}
	c.index++
	return true
}

func (c *fakeCursor) Value(column string) (string, bool, error) {
	if c.valueErr != nil {
		return "", false, c.valueErr
	}
	if c.index == 0 || c.index > len(c.rows) {
		return "", false, fmt.Errorf("cursor is not positioned on a row")
	}
	value, ok := c.rows[c.index-1][column]
	return value, ok, nil
}

func (c *fakeCursor) Err() error { return c.iterErr }

func (c *fakeCursor) Close() error {
	c.closed = true
	return c.closeErr
}

type fakeContentResolver struct {
	mu       sync.Mutex
	rows     map[string][]map[string]string
	err      error
	closeErr error
	cursors  []*fakeCursor
	columns  [][]string
}

func (r *fakeContentResolver) Query(_ context.Context, reference string, columns []string) (ContentCursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.columns = append(r.columns, append([]string(nil), columns...))
	if r.err != nil {
		return nil, r.err
	}
	cursor := &fakeCursor{rows: r.rows[reference], closeErr: r.closeErr}
	r.cursors = append(r.cursors, cursor)
	return cursor, nil
}

func (r *fakeContentResolver) allClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cursor := range r.cursors {
		if !cursor.closed {
			return false
		}
	}
	return true
}

type fakeCloser struct {
	closed bool
}

func (c *fakeCloser) Close() error {
	c.closed = true
	return nil
}

type fakeOpener struct {
	mu     sync.Mutex
	err    error
	panics bool
	opened []string
	closer *fakeCloser
}

func (o *fakeOpener) Open(_ context.Context, reference string) (io.Closer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, reference)
	if o.panics {
		panic("security exception")
	}
	if o.err != nil {
		return nil, o.err
	}
	o.closer = &fakeCloser{}
	return o.closer, nil
}

type recordingResultListener struct {
	mu       sync.Mutex
	outcomes []ResolveOutcome
}

func (l *recordingResultListener) OnResourceResolved(_ context.Context, outcome ResolveOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, outcome)
}

func (l *recordingResultListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outcomes)
}

type recordingPermissionListener struct {
	mu       sync.Mutex
	outcomes []PermissionOutcome
}

func (l *recordingPermissionListener) OnPermissionResolved(_ context.Context, outcome PermissionOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, outcome)
}

func (l *recordingPermissionListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outcomes)
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

const (
	cameraApp  = "com.example.camera/.Capture"
	galleryApp = "com.example.gallery/.Pick"
	filesApp   = "com.example.files/.Browse"
)

// brokerFixture wires a service with fakes for every platform collaborator.
type brokerFixture struct {
	enumerator  *fakeEnumerator
	permissions *fakePermissionAPI
	dispatcher  *fakeDispatcher
	content     *fakeContentResolver
	opener      *fakeOpener
	results     *recordingResultListener
	grants      *recordingPermissionListener
	sinkDir     string
}

func newBrokerFixture(t *testing.T) *brokerFixture {
	t.Helper()
	return &brokerFixture{
		enumerator: &fakeEnumerator{handlers: map[string][]HandlerInfo{
			DefaultCaptureAction:    {{Component: cameraApp, Package: "com.example.camera"}},
			DefaultGetContentAction: {{Component: galleryApp, Package: "com.example.gallery"}},
		}},
		permissions: newFakePermissionAPI(DefaultCapturePerm, DefaultContentReadPerm),
		dispatcher:  &fakeDispatcher{},
		content:     &fakeContentResolver{rows: map[string][]map[string]string{}},
		opener:      &fakeOpener{},
		results:     &recordingResultListener{},
		grants:      &recordingPermissionListener{},
		sinkDir:     t.TempDir(),
	}
}

func (f *brokerFixture) service(t *testing.T, opts ...Option) *Service {
	t.Helper()
	cfg := Config{Sink: SinkConfig{Directory: f.sinkDir}}
	base := []Option{
		WithLogger(stubLogger{}),
		WithHandlerEnumerator(f.enumerator),
		WithPermissionAPI(f.permissions),
		WithDispatcher(f.dispatcher),
		WithContentResolver(f.content),
		WithContentOpener(f.opener),
		WithResultListener(f.results),
		WithPermissionListener(f.grants),
	}
	svc, err := NewService(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func imageRequest(includeCapture bool) ResourceRequest {
	return ResourceRequest{ContentTypeFilter: "image/*", IncludeCaptureProviders: includeCapture}
}

// failingPendingStore delegates to a memory store and injects storage errors.
type failingPendingStore struct {
	*MemoryPendingStore
	getErr     error
	consumeErr error
}

func (s *failingPendingStore) Get(ctx context.Context, token int64) (PendingDispatch, error) {
	if s.getErr != nil {
		return PendingDispatch{}, s.getErr
	}
	return s.MemoryPendingStore.Get(ctx, token)
}

func (s *failingPendingStore) Consume(ctx context.Context, token int64) (PendingDispatch, error) {
	if s.consumeErr != nil {
		return PendingDispatch{}, s.consumeErr
	}
	return s.MemoryPendingStore.Consume(ctx, token)
}
