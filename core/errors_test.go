package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestBrokerErrorMapper_AssignsStableCodes(t *testing.T) {
	cases := []struct {
		err      error
		textCode string
		category goerrors.Category
	}{
		{err: errors.New("core: content type filter is required"), textCode: BrokerErrorBadInput, category: goerrors.CategoryBadInput},
		{err: errors.New("core: correlation token 5 is already outstanding"), textCode: BrokerErrorCorrelationConflict, category: goerrors.CategoryConflict},
		{err: errors.New("core: correlation token 5 is not pending"), textCode: BrokerErrorCorrelationConflict, category: goerrors.CategoryNotFound},
		{err: newPermissionDeniedError(DefaultCapturePerm), textCode: BrokerErrorPermissionDenied, category: goerrors.CategoryAuthz},
		{err: newNoProvidersError("image/*"), textCode: BrokerErrorNoProviders, category: goerrors.CategoryNotFound},
		{err: newResolutionError("core: no row"), textCode: BrokerErrorResultResolutionFailed, category: goerrors.CategoryOperation},
		{err: wrapExternalProviderError(errors.New("gone"), "core: dispatch failed"), textCode: BrokerErrorExternalProviderError, category: goerrors.CategoryOperation},
		{err: fmt.Errorf("sqlstore: %w: 5", ErrDispatchNotPending), textCode: BrokerErrorCorrelationConflict, category: goerrors.CategoryNotFound},
		{err: errors.New("sqlstore: content reference content://x not found"), textCode: BrokerErrorNotFound, category: goerrors.CategoryNotFound},
		{err: goerrors.New("record missing", goerrors.CategoryNotFound), textCode: BrokerErrorNotFound, category: goerrors.CategoryNotFound},
	}

	for _, tc := range cases {
		mapped := brokerErrorMapper(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapped error for %v", tc.err)
		}
		if mapped.TextCode != tc.textCode {
			t.Fatalf("expected text code %q for %v, got %q", tc.textCode, tc.err, mapped.TextCode)
		}
		if mapped.Category != tc.category {
			t.Fatalf("expected category %q for %v, got %q", tc.category, tc.err, mapped.Category)
		}
		if mapped.Code == 0 {
			t.Fatalf("expected http status code on mapped error for %v", tc.err)
		}
	}
}

func TestBrokerErrorMapper_UnknownErrorsGetEnvelope(t *testing.T) {
	mapped := brokerErrorMapper(errors.New("something odd"))
	if mapped == nil || mapped.TextCode == "" || mapped.Code == 0 {
		t.Fatalf("expected populated envelope, got %#v", mapped)
	}
	if brokerErrorMapper(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestErrorPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("negotiate: %w", newPermissionDeniedError(DefaultCapturePerm))
	if !IsPermissionDenied(wrapped) {
		t.Fatalf("expected permission denied to be detectable through wrapping")
	}
	if IsNoProvidersAvailable(nil) || IsExternalProviderError(errors.New("plain")) {
		t.Fatalf("expected predicates to reject unrelated errors")
	}
}

func TestServiceMethods_MapErrorsToStableCodes(t *testing.T) {
	fx := newBrokerFixture(t)
	svc := fx.service(t)
	ctx := context.Background()

	_, err := svc.PendingDispatch(ctx, 31337)
	if got := textCode(err); got != BrokerErrorCorrelationConflict {
		t.Fatalf("expected correlation code for unknown pending token, got %q", got)
	}
	if err := svc.RetryPermission(ctx, " "); textCode(err) != BrokerErrorBadInput {
		t.Fatalf("expected bad input for empty permission id, got %v", err)
	}
	if _, err := svc.PermissionStatus(ctx, ""); textCode(err) != BrokerErrorBadInput {
		t.Fatalf("expected bad input for empty permission id, got %v", err)
	}

	fx.enumerator.err = errors.New("package manager died")
	if _, err := svc.RequestResource(ctx, imageRequest(true)); err == nil || textCode(err) == "" {
		t.Fatalf("expected mapped discovery error, got %v", err)
	}
}

func TestBrokerErrorMapper_GenericNotFoundIsNotNoProviders(t *testing.T) {
	mapped := brokerErrorMapper(sql.ErrNoRows)
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode == BrokerErrorNoProviders || IsNoProvidersAvailable(mapped) {
		t.Fatalf("expected unrelated not-found error to keep clear of %q, got %#v", BrokerErrorNoProviders, mapped)
	}
}

func TestMessageErrorHelpers_BuildEnvelopes(t *testing.T) {
	if WrapValidationError(nil, "ignored") != nil {
		t.Fatalf("expected nil for nil input")
	}

	var rich *goerrors.Error
	if err := WrapValidationError(errors.New("bad"), "command: invalid"); !goerrors.As(err, &rich) || rich.TextCode != BrokerErrorBadInput {
		t.Fatalf("expected bad input envelope, got %v", err)
	}
	if err := NewFieldValidationError("query: validation failed", "permission_id", "required"); !goerrors.As(err, &rich) ||
		rich.Category != goerrors.CategoryValidation || rich.TextCode != BrokerErrorBadInput {
		t.Fatalf("expected validation envelope, got %v", err)
	}
	if err := NewDependencyError("command: service is required"); !goerrors.As(err, &rich) ||
		rich.Category != goerrors.CategoryInternal || rich.TextCode != BrokerErrorInternal {
		t.Fatalf("expected internal envelope, got %v", err)
	}
}
