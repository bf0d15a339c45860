package preflight

import (
	"context"

	"dealflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckHubSpot(ctx, cfg.HubSpot),
		CheckNotion(ctx, cfg.Notion),
		CheckLLM(ctx, "Anthropic", cfg.LLM),
		CheckEmail(cfg),
	}
}

// Failed returns the results that neither passed nor were skipped.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}
