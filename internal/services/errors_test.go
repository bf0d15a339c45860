package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"dealflow/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "hubspot", "create note", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"hubspot", "create note", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrValidation, "workflow", "process", "notes empty", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrNotFound, "notion", "get page", "", nil), http.StatusNotFound},
		{services.Wrap(services.ErrTimeout, "llm", "extract", "", nil), http.StatusGatewayTimeout},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{&services.HTTPError{Service: "HubSpot", StatusCode: 500}, http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestHTTPErrorMatching(t *testing.T) {
	notFound := fmt.Errorf("fetch: %w", &services.HTTPError{Service: "Notion", StatusCode: 404, Body: "missing"})
	if !errors.Is(notFound, services.ErrNotFound) {
		t.Fatal("expected 404 to match ErrNotFound")
	}
	if !errors.Is(notFound, services.ErrExternalTool) {
		t.Fatal("expected vendor error to match ErrExternalTool")
	}
	if code := services.StatusCode(notFound); code != 404 {
		t.Fatalf("expected status 404, got %d", code)
	}
	if msg := notFound.Error(); !strings.Contains(msg, "Notion API error: 404 - missing") {
		t.Fatalf("unexpected message %q", msg)
	}
	conflict := &services.HTTPError{Service: "HubSpot", StatusCode: 409}
	if errors.Is(conflict, services.ErrNotFound) {
		t.Fatal("409 must not match ErrNotFound")
	}
}

func TestInvalidKeepsMessageAndMatchesValidation(t *testing.T) {
	err := services.Invalid("Notes cannot be empty")
	if err.Error() != "Notes cannot be empty" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if got := services.HTTPStatus(fmt.Errorf("wrapped: %w", err)); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}
