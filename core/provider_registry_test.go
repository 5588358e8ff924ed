package core

import (
	"context"
	"errors"
	"testing"
)

func TestProviderRegistry_CaptureIgnoresTypeFilter(t *testing.T) {
	enumerator := &fakeEnumerator{handlers: map[string][]HandlerInfo{
		DefaultCaptureAction: {{Component: cameraApp}, {Component: "com.example.other/.Cam"}},
	}}
	registry := NewProviderRegistry(DefaultConfig(), enumerator)

	descriptors, err := registry.Discover(context.Background(), ActionKindCapture, "image/*", false)
	if err != nil {
		t.Fatalf("discover capture: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("expected two capture descriptors, got %#v", descriptors)
	}
	if descriptors[0].ProviderID != cameraApp {
		t.Fatalf("expected platform order to be preserved, got %#v", descriptors)
	}
	for _, descriptor := range descriptors {
		if descriptor.Kind != ProviderKindCapture {
			t.Fatalf("expected capture kind, got %q", descriptor.Kind)
		}
		if descriptor.RequiredPermission != DefaultCapturePerm {
			t.Fatalf("expected capture permission, got %q", descriptor.RequiredPermission)
		}
	}
	if enumerator.calls[0].typeFilter != "" {
		t.Fatalf("expected capture enumeration without type filter, got %q", enumerator.calls[0].typeFilter)
	}
}

func TestProviderRegistry_GalleryFallsBackToPickOnce(t *testing.T) {
	enumerator := &fakeEnumerator{handlers: map[string][]HandlerInfo{
		DefaultPickAction: {{Component: galleryApp}},
	}}
	registry := NewProviderRegistry(DefaultConfig(), enumerator)

	descriptors, err := registry.Discover(context.Background(), ActionKindGallery, "image/*", false)
	if err != nil {
		t.Fatalf("discover gallery: %v", err)
	}
	if len(descriptors) != 1 || descriptors[0].Action != DefaultPickAction {
		t.Fatalf("expected pick fallback descriptor, got %#v", descriptors)
	}
	if descriptors[0].ContentTypeFilter != "image/*" {
		t.Fatalf("expected type filter to carry over, got %q", descriptors[0].ContentTypeFilter)
	}
	if enumerator.callCount() != 2 {
		t.Fatalf("expected exactly one fallback query, got %d calls", enumerator.callCount())
	}
}

func TestProviderRegistry_GalleryWithoutAnyHandlerIsEmpty(t *testing.T) {
	enumerator := &fakeEnumerator{handlers: map[string][]HandlerInfo{}}
	registry := NewProviderRegistry(DefaultConfig(), enumerator)

	descriptors, err := registry.Discover(context.Background(), ActionKindGallery, "image/*", false)
	if err != nil {
		t.Fatalf("discover gallery: %v", err)
	}
	if len(descriptors) != 0 {
		t.Fatalf("expected empty result, got %#v", descriptors)
	}
	if enumerator.callCount() != 2 {
		t.Fatalf("expected primary and fallback queries only, got %d", enumerator.callCount())
	}
}

func TestProviderRegistry_BuiltinBrowserExcludedUnlessRequested(t *testing.T) {
	enumerator := &fakeEnumerator{handlers: map[string][]HandlerInfo{
		DefaultGetContentAction: {{Component: DefaultBuiltinBrowser}, {Component: galleryApp}},
	}}
	registry := NewProviderRegistry(DefaultConfig(), enumerator)

	without, err := registry.Discover(context.Background(), ActionKindGallery, "image/*", false)
	if err != nil {
		t.Fatalf("discover without browse: %v", err)
	}
	if len(without) != 1 || without[0].ProviderID != galleryApp {
		t.Fatalf("expected builtin browser to be excluded, got %#v", without)
	}

	with, err := registry.Discover(context.Background(), ActionKindGallery, "image/*", true)
	if err != nil {
		t.Fatalf("discover with browse: %v", err)
	}
	if len(with) != 2 || with[0].Kind != ProviderKindBrowse || with[1].Kind != ProviderKindPick {
		t.Fatalf("expected browse then pick descriptors, got %#v", with)
	}
}

func TestProviderRegistry_DiscoverForRequestOrdersCaptureFirst(t *testing.T) {
	enumerator := &fakeEnumerator{handlers: map[string][]HandlerInfo{
		DefaultCaptureAction:    {{Component: cameraApp}},
		DefaultGetContentAction: {{Component: galleryApp}},
	}}
	registry := NewProviderRegistry(DefaultConfig(), enumerator)

	descriptors, err := registry.DiscoverForRequest(context.Background(), imageRequest(true))
	if err != nil {
		t.Fatalf("discover for request: %v", err)
	}
	if len(descriptors) != 2 || descriptors[0].Kind != ProviderKindCapture || descriptors[1].Kind != ProviderKindPick {
		t.Fatalf("expected capture then pick, got %#v", descriptors)
	}

	galleryOnly, err := registry.DiscoverForRequest(context.Background(), imageRequest(false))
	if err != nil {
		t.Fatalf("discover gallery only: %v", err)
	}
	if len(galleryOnly) != 1 || galleryOnly[0].Kind != ProviderKindPick {
		t.Fatalf("expected gallery only, got %#v", galleryOnly)
	}
}

func TestProviderRegistry_PropagatesEnumeratorError(t *testing.T) {
	registry := NewProviderRegistry(DefaultConfig(), &fakeEnumerator{err: errors.New("package manager died")})
	if _, err := registry.Discover(context.Background(), ActionKindCapture, "image/*", false); err == nil {
		t.Fatalf("expected enumerator error")
	}
	if _, err := registry.Discover(context.Background(), ActionKind("video"), "image/*", false); err == nil {
		t.Fatalf("expected invalid kind error")
	}
}
