package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"dealflow/internal/config"
	"dealflow/internal/services"
	"dealflow/internal/services/apiclient"
	"dealflow/internal/services/llm"
)

const vendorCheckTimeout = 10 * time.Second

// notionProbeVersion is any API version accepted by /users/me.
const notionProbeVersion = "2022-06-28"

func skipped(name string) Result {
	return Result{Name: name, Skipped: true, Detail: "not configured"}
}

// CheckLLM verifies that the Anthropic API is reachable and the key is valid.
// It uses a single attempt with no retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return skipped(name)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.NotesModel,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckHubSpot lists a single contact to confirm the private app token.
func CheckHubSpot(ctx context.Context, cfg config.HubSpot) Result {
	const name = "HubSpot"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return skipped(name)
	}
	client := apiclient.New(name, cfg.BaseURL,
		apiclient.WithTimeout(vendorCheckTimeout),
		apiclient.WithBearerToken(cfg.APIKey),
	)
	return probe(ctx, name, client, "/crm/v3/objects/contacts", url.Values{"limit": {"1"}})
}

// CheckNotion fetches the integration's bot user.
func CheckNotion(ctx context.Context, cfg config.Notion) Result {
	const name = "Notion"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return skipped(name)
	}
	client := apiclient.New(name, cfg.BaseURL,
		apiclient.WithTimeout(vendorCheckTimeout),
		apiclient.WithBearerToken(cfg.APIKey),
		apiclient.WithHeader("Notion-Version", notionProbeVersion),
	)
	result := probe(ctx, name, client, "/users/me", nil)
	if result.Passed && strings.TrimSpace(cfg.InvestorPrefsDB) == "" {
		result.Detail += " (investor_prefs_db_id not set)"
	}
	return result
}

// CheckEmail reports which digest transport the config selects.
func CheckEmail(cfg *config.Config) Result {
	const name = "Email"
	transport := cfg.EmailTransport()
	if transport == "" {
		return Result{Name: name, Skipped: true, Detail: "no transport configured"}
	}
	if strings.TrimSpace(cfg.Email.To) == "" {
		return Result{Name: name, Detail: transport + " configured but email.to is empty"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s to %s", transport, cfg.Email.To)}
}

func probe(ctx context.Context, name string, client *apiclient.Client, path string, query url.Values) Result {
	checkCtx, cancel := context.WithTimeout(ctx, vendorCheckTimeout)
	defer cancel()

	err := client.Do(checkCtx, http.MethodGet, path, query, nil, nil)
	switch code := services.StatusCode(err); {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	case code != 0:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", code)}
	default:
		return Result{Name: name, Detail: summarizeError(err)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
