package services_test

import (
	"errors"
	"strings"
	"testing"

	"lectern/internal/services"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrExternalTool, "ytmeta", "get_video", "fetch metadata", cause)

	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("wrapped error lost its marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error lost its cause")
	}
	for _, want := range []string{"ytmeta", "get_video", "fetch metadata", "connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "dispatch", "enqueue", "something odd", nil)
	if got := services.ErrorCode(err); got != "transient" {
		t.Fatalf("ErrorCode = %q, want transient", got)
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		marker error
		want   string
	}{
		{services.ErrValidation, "validation"},
		{services.ErrConfiguration, "configuration"},
		{services.ErrNotFound, "not_found"},
		{services.ErrExternalTool, "external_tool"},
		{services.ErrTransient, "transient"},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "component", "op", "", nil)
		if got := services.ErrorCode(err); got != tc.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tc.marker, got, tc.want)
		}
	}
	if got := services.ErrorCode(errors.New("plain")); got != "transient" {
		t.Errorf("ErrorCode(plain) = %q, want transient", got)
	}
	if got := services.ErrorCode(nil); got != "" {
		t.Errorf("ErrorCode(nil) = %q, want empty", got)
	}
}

func TestIsPermanent(t *testing.T) {
	permanent := []error{services.ErrValidation, services.ErrConfiguration, services.ErrNotFound}
	for _, marker := range permanent {
		if !services.IsPermanent(services.Wrap(marker, "c", "o", "", nil)) {
			t.Errorf("IsPermanent(%v) = false, want true", marker)
		}
	}
	retryable := []error{services.ErrExternalTool, services.ErrTransient, errors.New("plain")}
	for _, err := range retryable {
		if services.IsPermanent(err) {
			t.Errorf("IsPermanent(%v) = true, want false", err)
		}
	}
}

func TestSuggestedFix(t *testing.T) {
	if fix := services.SuggestedFix(services.Wrap(services.ErrConfiguration, "c", "o", "", nil)); fix == "" {
		t.Fatal("expected a suggested fix for configuration errors")
	}
	if fix := services.SuggestedFix(errors.New("plain")); fix != "" {
		t.Fatalf("unexpected fix for unclassified error: %q", fix)
	}
}
