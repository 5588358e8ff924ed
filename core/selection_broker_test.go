package core

import (
	"reflect"
	"testing"
)

func TestSelectionBroker_EmptySetYieldsPlaceholder(t *testing.T) {
	target := NewSelectionBroker("Select picture").BuildChooser(nil, PendingOutputSink{})
	if !target.Primary.Placeholder {
		t.Fatalf("expected placeholder primary, got %#v", target.Primary)
	}
	if target.Alternates == nil || len(target.Alternates) != 0 {
		t.Fatalf("expected empty alternates, got %#v", target.Alternates)
	}
	if target.Title != "Select picture" {
		t.Fatalf("expected default title, got %q", target.Title)
	}
}

func TestSelectionBroker_LastDescriptorIsPrimary(t *testing.T) {
	sink := PendingOutputSink{CorrelationToken: 7, PreallocatedLocator: "/tmp/capture-7.jpeg"}
	cleared := []ProviderDescriptor{
		{ProviderID: cameraApp, Kind: ProviderKindCapture, Action: DefaultCaptureAction},
		{ProviderID: filesApp, Kind: ProviderKindPick, Action: DefaultGetContentAction, ContentTypeFilter: "image/*"},
		{ProviderID: galleryApp, Kind: ProviderKindPick, Action: DefaultGetContentAction, ContentTypeFilter: "image/*"},
	}

	target := NewSelectionBroker("Select picture").BuildChooserTitled("Attach", cleared, sink)
	if target.Title != "Attach" {
		t.Fatalf("expected per-call title, got %q", target.Title)
	}
	if target.Primary.ProviderID != galleryApp {
		t.Fatalf("expected last descriptor as primary, got %#v", target.Primary)
	}
	if len(target.Alternates) != 2 || target.Alternates[0].ProviderID != cameraApp || target.Alternates[1].ProviderID != filesApp {
		t.Fatalf("expected remaining descriptors in order, got %#v", target.Alternates)
	}
	if target.Alternates[0].OutputLocator != sink.PreallocatedLocator {
		t.Fatalf("expected capture intent to target the sink, got %q", target.Alternates[0].OutputLocator)
	}
	if target.Primary.OutputLocator != "" {
		t.Fatalf("expected pick intent without output locator, got %q", target.Primary.OutputLocator)
	}
	if got := len(target.Intents()); got != 3 {
		t.Fatalf("expected three intents, got %d", got)
	}
}

func TestSelectionBroker_SingleDescriptorHasNoAlternates(t *testing.T) {
	target := NewSelectionBroker("").BuildChooser([]ProviderDescriptor{{ProviderID: galleryApp, Kind: ProviderKindPick}}, PendingOutputSink{})
	if target.Primary.ProviderID != galleryApp || target.Primary.Placeholder {
		t.Fatalf("unexpected primary %#v", target.Primary)
	}
	if len(target.Alternates) != 0 {
		t.Fatalf("expected no alternates, got %#v", target.Alternates)
	}
}

func TestSelectionBroker_IdenticalInputsBuildEqualTargets(t *testing.T) {
	sink := PendingOutputSink{CorrelationToken: 9, PreallocatedLocator: "/tmp/capture-9.jpeg"}
	cleared := []ProviderDescriptor{
		{ProviderID: cameraApp, Kind: ProviderKindCapture, Action: DefaultCaptureAction, RequiredPermission: DefaultCapturePerm},
		{ProviderID: galleryApp, Kind: ProviderKindPick, Action: DefaultGetContentAction, ContentTypeFilter: "image/*"},
		{ProviderID: filesApp, Kind: ProviderKindPick, Action: DefaultPickAction, ContentTypeFilter: "image/*"},
	}
	selector := NewSelectionBroker("Select picture")

	first := selector.BuildChooser(cleared, sink)
	second := selector.BuildChooser(cleared, sink)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical inputs to build equal targets:\n%#v\n%#v", first, second)
	}

	fresh := NewSelectionBroker("Select picture").BuildChooser(append([]ProviderDescriptor(nil), cleared...), sink)
	if !reflect.DeepEqual(first, fresh) {
		t.Fatalf("expected a separate selector to build the same target:\n%#v\n%#v", first, fresh)
	}
}
