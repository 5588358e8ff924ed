package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

type ResultResolver struct {
	captureAction string
	pathColumn    string
	resolver      ContentResolver
}

func NewResultResolver(cfg Config, resolver ContentResolver) *ResultResolver {
	return &ResultResolver{
		captureAction: strings.TrimSpace(cfg.Actions.Capture),
		pathColumn:    strings.TrimSpace(cfg.Content.PathColumn),
		resolver:      resolver,
	}
}

// Resolve turns a provider completion into a canonical locator. Cancelled and
// abnormal completions never produce one.
func (r *ResultResolver) Resolve(
	ctx context.Context,
	token int64,
	signal CompletionSignal,
	handle ResultHandle,
	sink PendingOutputSink,
) ResolveOutcome {
	outcome := ResolveOutcome{CorrelationToken: token}
	if !signal.Succeeded() {
		outcome.State = DispatchCancelled
		if signal.Status != CompletionCancelled {
			outcome.Err = newExternalProviderError(
				fmt.Sprintf("core: provider completed abnormally with code %d", signal.Code),
			)
		}
		return outcome
	}

	switch r.Classify(handle) {
	case ProviderResultCaptured:
		path := strings.TrimSpace(sink.PreallocatedLocator)
		if path == "" || !filepath.IsAbs(path) {
			outcome.State = DispatchFailed
			outcome.Err = newResolutionError("core: capture sink locator is not an absolute path")
			return outcome
		}
		outcome.State = DispatchResolved
		outcome.Locator = &CanonicalLocator{AbsolutePath: filepath.Clean(path), OriginKind: OriginKindCaptured}
		return outcome
	default:
		path, err := r.lookup(ctx, strings.TrimSpace(handle.Reference))
		if err != nil {
			outcome.State = DispatchFailed
			outcome.Err = err
			return outcome
		}
		outcome.State = DispatchResolved
		outcome.Locator = &CanonicalLocator{AbsolutePath: path, OriginKind: OriginKindResolved}
		return outcome
	}
}

// Classify returns the explicit result kind when the platform tagged one.
// Untagged handles are treated as captured when they carry no reference or
// came back from the capture action.
func (r *ResultResolver) Classify(handle ResultHandle) ProviderResultKind {
	if handle.Kind != ProviderResultUnknown {
		return handle.Kind
	}
	if strings.TrimSpace(handle.Reference) == "" {
		return ProviderResultCaptured
	}
	if r != nil && r.captureAction != "" && strings.TrimSpace(handle.Action) == r.captureAction {
		return ProviderResultCaptured
	}
	return ProviderResultReferenced
}

func (r *ResultResolver) lookup(ctx context.Context, reference string) (path string, err error) {
	if reference == "" {
		return "", newResolutionError("core: content reference is required")
	}
	if r == nil || r.resolver == nil {
		return "", newResolutionError("core: content resolver is not configured")
	}
	cursor, err := r.resolver.Query(ctx, reference, []string{r.pathColumn})
	if err != nil {
		return "", newResolutionError(fmt.Sprintf("core: content lookup failed for %s: %v", reference, err))
	}
	if cursor == nil {
		return "", newResolutionError("core: content lookup returned no cursor for " + reference)
	}
	defer func() {
		if closeErr := cursor.Close(); closeErr != nil && err == nil {
			path = ""
			err = newResolutionError(fmt.Sprintf("core: release content cursor: %v", closeErr))
		}
	}()

	if !cursor.Next() {
		if iterErr := cursor.Err(); iterErr != nil {
			return "", newResolutionError(fmt.Sprintf("core: content lookup failed for %s: %v", reference, iterErr))
		}
		return "", newResolutionError("core: content reference " + reference + " has no row")
	}
	value, ok, err := cursor.Value(r.pathColumn)
	if err != nil {
		return "", newResolutionError(fmt.Sprintf("core: read %s for %s: %v", r.pathColumn, reference, err))
	}
	if !ok {
		return "", newResolutionError("core: content reference " + reference + " has no " + r.pathColumn + " column")
	}
	value = strings.TrimSpace(value)
	if value == "" || !filepath.IsAbs(value) {
		return "", newResolutionError("core: content reference " + reference + " resolved to a non-absolute path")
	}
	return filepath.Clean(value), nil
}
