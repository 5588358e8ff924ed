package core

import (
	"fmt"
	"strings"
	"time"
)

type ProviderKind string

const (
	ProviderKindCapture ProviderKind = "capture"
	ProviderKindPick    ProviderKind = "pick"
	ProviderKindBrowse  ProviderKind = "browse"
)

type ActionKind string

const (
	ActionKindCapture ActionKind = "capture"
	ActionKindGallery ActionKind = "gallery"
)

type OriginKind string

const (
	OriginKindCaptured OriginKind = "captured"
	OriginKindResolved OriginKind = "resolved"
)

// ProviderResultKind tags the shape of a provider completion. Unknown means the
// platform did not tag the result and the kind is inferred from the handle.
type ProviderResultKind string

const (
	ProviderResultUnknown    ProviderResultKind = ""
	ProviderResultCaptured   ProviderResultKind = "captured"
	ProviderResultReferenced ProviderResultKind = "referenced"
)

type PermissionRequestState string

const (
	PermissionUnrequested PermissionRequestState = "unrequested"
	PermissionRequested   PermissionRequestState = "requested"
	PermissionGranted     PermissionRequestState = "granted"
	PermissionDenied      PermissionRequestState = "denied"
)

type DispatchState string

const (
	DispatchAwaitingDispatch       DispatchState = "awaiting_dispatch"
	DispatchAwaitingExternalResult DispatchState = "awaiting_external_result"
	DispatchResolved               DispatchState = "resolved"
	DispatchCancelled              DispatchState = "cancelled"
	DispatchFailed                 DispatchState = "failed"
)

type CompletionStatus string

const (
	CompletionSuccess   CompletionStatus = "success"
	CompletionCancelled CompletionStatus = "cancelled"
	CompletionAbnormal  CompletionStatus = "abnormal"
)

// CompletionSignal is the status the external process reports when it returns
// control. Code carries the raw platform result code for abnormal completions.
type CompletionSignal struct {
	Status CompletionStatus
	Code   int
}

func SignalSuccess() CompletionSignal {
	return CompletionSignal{Status: CompletionSuccess}
}

func SignalCancelled() CompletionSignal {
	return CompletionSignal{Status: CompletionCancelled}
}

func SignalAbnormal(code int) CompletionSignal {
	return CompletionSignal{Status: CompletionAbnormal, Code: code}
}

func (s CompletionSignal) Succeeded() bool {
	return s.Status == CompletionSuccess
}

type ResourceRequest struct {
	ContentTypeFilter       string
	IncludeCaptureProviders bool
	IncludeBrowseProviders  bool
	CorrelationToken        int64
	ChooserTitle            string
}

func (r ResourceRequest) Validate() error {
	filter := strings.TrimSpace(r.ContentTypeFilter)
	if filter == "" {
		return fmt.Errorf("core: content type filter is required")
	}
	if !strings.Contains(filter, "/") {
		return fmt.Errorf("core: content type filter %q is invalid", filter)
	}
	if r.CorrelationToken < 0 {
		return fmt.Errorf("core: correlation token must be >= 0")
	}
	return nil
}

type ProviderDescriptor struct {
	ProviderID         string
	Kind               ProviderKind
	RequiredPermission string
	Action             string
	ContentTypeFilter  string
}

type PermissionState struct {
	PermissionID  string
	Granted       bool
	DeclaredByApp bool
}

type PendingOutputSink struct {
	CorrelationToken    int64
	PreallocatedLocator string
}

type CanonicalLocator struct {
	AbsolutePath string
	OriginKind   OriginKind
}

// DispatchIntent is one entry of the chooser handed to the external process.
// A placeholder intent carries no provider and is inert when selected.
type DispatchIntent struct {
	ProviderID        string
	Kind              ProviderKind
	Action            string
	ContentTypeFilter string
	OutputLocator     string
	Placeholder       bool
}

type DispatchTarget struct {
	Title      string
	Primary    DispatchIntent
	Alternates []DispatchIntent
}

// Intents returns the primary followed by the alternates.
func (t DispatchTarget) Intents() []DispatchIntent {
	out := make([]DispatchIntent, 0, len(t.Alternates)+1)
	out = append(out, t.Primary)
	out = append(out, t.Alternates...)
	return out
}

type ResultHandle struct {
	Reference string
	Action    string
	Kind      ProviderResultKind
}

type ResolveOutcome struct {
	CorrelationToken int64
	State            DispatchState
	Locator          *CanonicalLocator
	Err              error
	Ignored          bool
}

type PermissionOutcome struct {
	GrantToken   int64
	PermissionID string
	State        PermissionRequestState
	Err          error
	Ignored      bool
}

type NegotiationResult struct {
	Cleared         []ProviderDescriptor
	PendingRequests []string
	Denied          []string
}

type PendingDispatch struct {
	Token     int64
	Request   ResourceRequest
	Sink      PendingOutputSink
	Target    DispatchTarget
	State     DispatchState
	CreatedAt time.Time
}

func cloneDescriptors(in []ProviderDescriptor) []ProviderDescriptor {
	if len(in) == 0 {
		return []ProviderDescriptor{}
	}
	return append([]ProviderDescriptor(nil), in...)
}

func clonePendingDispatch(in PendingDispatch) PendingDispatch {
	out := in
	out.Target.Alternates = append([]DispatchIntent(nil), in.Target.Alternates...)
	return out
}
