package core

import (
	"context"
	"fmt"
	"strings"
)

type actionRoute struct {
	primary           string
	fallback          string
	ignoresTypeFilter bool
}

type ProviderRegistry struct {
	config     Config
	enumerator HandlerEnumerator
}

func NewProviderRegistry(cfg Config, enumerator HandlerEnumerator) *ProviderRegistry {
	return &ProviderRegistry{config: cfg, enumerator: enumerator}
}

// Discover lists the installed handlers for kind in platform order. When the
// primary action yields nothing and the kind has an alternate action, the
// alternate is queried once.
func (r *ProviderRegistry) Discover(
	ctx context.Context,
	kind ActionKind,
	contentTypeFilter string,
	includeBrowse bool,
) ([]ProviderDescriptor, error) {
	if r == nil || r.enumerator == nil {
		return nil, fmt.Errorf("core: handler enumerator is not configured")
	}
	route, err := r.route(kind)
	if err != nil {
		return nil, err
	}
	typeFilter := strings.TrimSpace(contentTypeFilter)
	if route.ignoresTypeFilter {
		typeFilter = ""
	}

	action := route.primary
	handlers, err := r.enumerator.EnumerateHandlers(ctx, action, typeFilter)
	if err != nil {
		return nil, err
	}
	if len(handlers) == 0 && route.fallback != "" {
		action = route.fallback
		handlers, err = r.enumerator.EnumerateHandlers(ctx, action, typeFilter)
		if err != nil {
			return nil, err
		}
	}

	out := make([]ProviderDescriptor, 0, len(handlers))
	for _, handler := range handlers {
		descriptor := r.describe(kind, action, typeFilter, handler)
		if descriptor.Kind == ProviderKindBrowse && !includeBrowse {
			continue
		}
		out = append(out, descriptor)
	}
	return out, nil
}

// DiscoverForRequest merges capture providers (when requested) ahead of the
// gallery providers for the request's content type.
func (r *ProviderRegistry) DiscoverForRequest(ctx context.Context, req ResourceRequest) ([]ProviderDescriptor, error) {
	merged := make([]ProviderDescriptor, 0)
	if req.IncludeCaptureProviders {
		capture, err := r.Discover(ctx, ActionKindCapture, req.ContentTypeFilter, req.IncludeBrowseProviders)
		if err != nil {
			return nil, err
		}
		merged = append(merged, capture...)
	}
	gallery, err := r.Discover(ctx, ActionKindGallery, req.ContentTypeFilter, req.IncludeBrowseProviders)
	if err != nil {
		return nil, err
	}
	return append(merged, gallery...), nil
}

func (r *ProviderRegistry) route(kind ActionKind) (actionRoute, error) {
	switch kind {
	case ActionKindCapture:
		return actionRoute{
			primary:           strings.TrimSpace(r.config.Actions.Capture),
			ignoresTypeFilter: true,
		}, nil
	case ActionKindGallery:
		return actionRoute{
			primary:  strings.TrimSpace(r.config.Actions.GetContent),
			fallback: strings.TrimSpace(r.config.Actions.Pick),
		}, nil
	default:
		return actionRoute{}, fmt.Errorf("core: action kind %q is invalid", kind)
	}
}

func (r *ProviderRegistry) describe(kind ActionKind, action string, typeFilter string, handler HandlerInfo) ProviderDescriptor {
	descriptor := ProviderDescriptor{
		ProviderID:        strings.TrimSpace(handler.Component),
		Action:            action,
		ContentTypeFilter: typeFilter,
	}
	if kind == ActionKindCapture {
		descriptor.Kind = ProviderKindCapture
		descriptor.RequiredPermission = strings.TrimSpace(r.config.Authorization.CapturePermission)
		return descriptor
	}
	descriptor.Kind = ProviderKindPick
	if r.isBuiltinBrowser(handler) {
		descriptor.Kind = ProviderKindBrowse
	}
	descriptor.RequiredPermission = strings.TrimSpace(r.config.Authorization.ContentReadPermission)
	return descriptor
}

func (r *ProviderRegistry) isBuiltinBrowser(handler HandlerInfo) bool {
	browser := strings.TrimSpace(r.config.Providers.BuiltinBrowser)
	return browser != "" && strings.TrimSpace(handler.Component) == browser
}
