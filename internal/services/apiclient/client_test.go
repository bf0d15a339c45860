package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"dealflow/internal/services"
	"dealflow/internal/services/apiclient"
)

func TestDoSendsJSONAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/v1/things" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "5" {
			t.Fatalf("expected limit query, got %q", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Version"); got != "2022-06-28" {
			t.Fatalf("unexpected version header %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["name"] != "acme" {
			t.Fatalf("unexpected body %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "42"})
	}))
	defer server.Close()

	client := apiclient.New("Test", server.URL+"/",
		apiclient.WithBearerToken("secret"),
		apiclient.WithHeader("X-Version", "2022-06-28"),
		apiclient.WithLimiter(services.NewHostLimiter(100, 10)),
	)
	var out struct {
		ID string `json:"id"`
	}
	err := client.Do(context.Background(), http.MethodPost, "/v1/things", url.Values{"limit": {"5"}}, map[string]string{"name": "acme"}, &out)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if out.ID != "42" {
		t.Fatalf("unexpected id %q", out.ID)
	}
}

func TestDoReturnsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Contact already exists. Existing ID: 12345"}`))
	}))
	defer server.Close()

	client := apiclient.New("HubSpot", server.URL)
	err := client.Do(context.Background(), http.MethodPost, "crm/v3/objects/contacts", nil, map[string]string{}, nil)
	var httpErr *services.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusConflict {
		t.Fatalf("unexpected status %d", httpErr.StatusCode)
	}
	if httpErr.Path != "crm/v3/objects/contacts" {
		t.Fatalf("unexpected path %q", httpErr.Path)
	}
}

func TestDoToleratesEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := apiclient.New("Test", server.URL)
	var out map[string]any
	if err := client.Do(context.Background(), http.MethodDelete, "x", nil, nil, &out); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
}
