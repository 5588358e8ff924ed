package adapters_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-resource-broker/adapters/gocommand"
	brokercommand "github.com/goliatone/go-resource-broker/command"
	"github.com/goliatone/go-resource-broker/core"
	"github.com/goliatone/go-resource-broker/platform"
	brokerquery "github.com/goliatone/go-resource-broker/query"
)

const compatCatalog = `
handlers:
  - component: com.example.camera/.Capture
    actions: [android.media.action.IMAGE_CAPTURE]
  - component: com.example.gallery/.Pick
    actions: [android.intent.action.GET_CONTENT]
    mime_types: ["image/*"]
`

type compatRuntime struct {
	service     *core.Service
	permissions *platform.PermissionTable
	dispatcher  *platform.Dispatcher
	photoPath   string
}

func newCompatRuntime(t *testing.T) *compatRuntime {
	t.Helper()
	catalog, err := platform.LoadCatalog(strings.NewReader(compatCatalog))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	dir := t.TempDir()
	probeFile := filepath.Join(dir, "probe")
	photoPath := filepath.Join(dir, "IMG_0042.jpg")
	for _, path := range []string{probeFile, photoPath} {
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	cfg := core.DefaultConfig()
	cfg.Sink.Directory = t.TempDir()
	content := platform.NewContentTable(cfg.Content.PathColumn)
	content.Put(cfg.Authorization.ProbeReference, platform.ContentRow{Path: probeFile})
	content.Put("content://media/external/images/42", platform.ContentRow{Path: photoPath, MimeType: "image/jpeg"})

	permissions := platform.NewPermissionTable(cfg.Authorization.DeclaredPermissions...)
	dispatcher := platform.NewDispatcher(4)

	svc, err := core.NewService(cfg,
		core.WithHandlerEnumerator(catalog),
		core.WithPermissionAPI(permissions),
		core.WithDispatcher(dispatcher),
		core.WithContentResolver(content),
		core.WithContentOpener(content),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &compatRuntime{service: svc, permissions: permissions, dispatcher: dispatcher, photoPath: photoPath}
}

func TestRuntimeCompatibility_BrokerRoundTripThroughCommandBus(t *testing.T) {
	ctx := context.Background()
	rt := newCompatRuntime(t)

	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	subs, err := gocommand.RegisterBroker(adapter, rt.service)
	if err != nil {
		t.Fatalf("register broker: %v", err)
	}
	defer subs.Unsubscribe()
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	requested := command.NewResult[brokercommand.RequestResourceResult]()
	if err := gocommand.Dispatch(command.ContextWithResult(ctx, requested), brokercommand.RequestResourceMessage{
		Request: core.ResourceRequest{ContentTypeFilter: "image/*", IncludeCaptureProviders: true},
	}); err != nil {
		t.Fatalf("dispatch request resource: %v", err)
	}
	result, ok := requested.Load()
	if !ok || result.CorrelationToken == 0 {
		t.Fatalf("expected correlation token from request resource, got %#v", result)
	}

	prompts := rt.permissions.TakeRequests()
	if len(prompts) != 1 || prompts[0].PermissionID != core.DefaultCapturePerm {
		t.Fatalf("expected one camera prompt, got %#v", prompts)
	}

	sent := <-rt.dispatcher.Outbox()
	if sent.CorrelationToken != result.CorrelationToken {
		t.Fatalf("expected dispatch for token %d, got %d", result.CorrelationToken, sent.CorrelationToken)
	}
	for _, intent := range sent.Target.Intents() {
		if intent.Kind == core.ProviderKindCapture {
			t.Fatalf("expected camera to be withheld while its grant is pending, got %#v", sent.Target)
		}
	}

	if err := rt.permissions.Grant(core.DefaultCapturePerm); err != nil {
		t.Fatalf("grant camera: %v", err)
	}
	permissionOutcome := command.NewResult[core.PermissionOutcome]()
	if err := gocommand.Dispatch(command.ContextWithResult(ctx, permissionOutcome), brokercommand.CompletePermissionMessage{
		GrantToken: prompts[0].GrantToken,
		Granted:    true,
	}); err != nil {
		t.Fatalf("dispatch complete permission: %v", err)
	}
	if outcome, ok := permissionOutcome.Load(); !ok || outcome.State != core.PermissionGranted {
		t.Fatalf("expected granted permission outcome, got %#v", outcome)
	}

	state, err := gocommand.Query[brokerquery.PermissionStatusMessage, core.PermissionRequestState](ctx, brokerquery.PermissionStatusMessage{
		PermissionID: core.DefaultCapturePerm,
	})
	if err != nil {
		t.Fatalf("query permission status: %v", err)
	}
	if state != core.PermissionGranted {
		t.Fatalf("expected granted status, got %q", state)
	}

	pending, err := gocommand.Query[brokerquery.PendingDispatchMessage, core.PendingDispatch](ctx, brokerquery.PendingDispatchMessage{
		CorrelationToken: result.CorrelationToken,
	})
	if err != nil {
		t.Fatalf("query pending dispatch: %v", err)
	}
	if pending.State != core.DispatchAwaitingExternalResult {
		t.Fatalf("expected awaiting external result, got %q", pending.State)
	}

	resolved := command.NewResult[core.ResolveOutcome]()
	if err := gocommand.Dispatch(command.ContextWithResult(ctx, resolved), brokercommand.CompleteDispatchMessage{
		CorrelationToken: result.CorrelationToken,
		Signal:           core.SignalSuccess(),
		Handle:           core.ResultHandle{Reference: "content://media/external/images/42"},
	}); err != nil {
		t.Fatalf("dispatch complete dispatch: %v", err)
	}
	outcome, ok := resolved.Load()
	if !ok || outcome.State != core.DispatchResolved || outcome.Locator == nil {
		t.Fatalf("expected resolved outcome, got %#v", outcome)
	}
	if outcome.Locator.AbsolutePath != rt.photoPath || outcome.Locator.OriginKind != core.OriginKindResolved {
		t.Fatalf("unexpected locator %#v", outcome.Locator)
	}

	providers, err := gocommand.Query[brokerquery.PreviewProvidersMessage, []core.ProviderDescriptor](ctx, brokerquery.PreviewProvidersMessage{
		Request: core.ResourceRequest{ContentTypeFilter: "image/*", IncludeCaptureProviders: true},
	})
	if err != nil {
		t.Fatalf("query preview providers: %v", err)
	}
	if len(providers) != 2 || providers[0].Kind != core.ProviderKindCapture {
		t.Fatalf("expected camera ahead of gallery in preview, got %#v", providers)
	}
}

func TestRuntimeCompatibility_InvalidMessagesRejectedBeforeService(t *testing.T) {
	ctx := context.Background()
	rt := newCompatRuntime(t)

	adapter := gocommand.NewRegistryAdapter(nil)
	subs, err := gocommand.RegisterBroker(adapter, rt.service)
	if err != nil {
		t.Fatalf("register broker: %v", err)
	}
	defer subs.Unsubscribe()

	if err := gocommand.ValidateMessageContract(brokercommand.RequestResourceMessage{}); err == nil {
		t.Fatalf("expected empty request message to fail validation")
	}
	if err := gocommand.Dispatch(ctx, brokercommand.RequestResourceMessage{}); err == nil {
		t.Fatalf("expected dispatch of invalid request to fail")
	}
	if len(rt.dispatcher.Sent()) != 0 {
		t.Fatalf("expected no chooser dispatch for invalid request")
	}
}
