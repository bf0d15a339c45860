package secrets_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zalando/go-keyring"

	"dealflow/internal/config"
	"dealflow/internal/secrets"
)

func TestSetLookupDelete(t *testing.T) {
	keyring.MockInit()

	if err := secrets.Set("HubSpot_API_Key", "pat-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok := secrets.Lookup("hubspot_api_key")
	if !ok || value != "pat-123" {
		t.Fatalf("unexpected lookup %q %v", value, ok)
	}
	if diff := cmp.Diff([]string{"hubspot_api_key"}, secrets.Stored()); diff != "" {
		t.Fatalf("unexpected stored names (-want +got):\n%s", diff)
	}
	if err := secrets.Delete("hubspot_api_key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := secrets.Lookup("hubspot_api_key"); ok {
		t.Fatal("expected secret removed")
	}
	if err := secrets.Delete("hubspot_api_key"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestUnknownNameRejected(t *testing.T) {
	keyring.MockInit()
	if err := secrets.Set("github_token", "x"); !errors.Is(err, secrets.ErrUnknownName) {
		t.Fatalf("expected ErrUnknownName, got %v", err)
	}
	if err := secrets.Set("notion_api_key", "  "); err == nil {
		t.Fatal("expected empty value rejected")
	}
}

func TestFillSecretsFromKeyring(t *testing.T) {
	keyring.MockInit()
	if err := secrets.Set("notion_api_key", "secret_abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := secrets.Set("hubspot_api_key", "from-keyring"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cfg := config.Default()
	cfg.HubSpot.APIKey = "from-file"
	cfg.FillSecrets(secrets.Lookup)

	if cfg.Notion.APIKey != "secret_abc" {
		t.Fatalf("expected keyring fill, got %q", cfg.Notion.APIKey)
	}
	if cfg.HubSpot.APIKey != "from-file" {
		t.Fatalf("file value must win, got %q", cfg.HubSpot.APIKey)
	}
}
