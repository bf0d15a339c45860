package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"dealflow/internal/api"
	"dealflow/internal/config"
	"dealflow/internal/daemon"
	"dealflow/internal/logging"
	"dealflow/internal/preflight"
)

// Run starts the dealflow daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if pruned := logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays); pruned > 0 {
		logger.Info("old logs pruned",
			logging.Int("count", pruned),
			logging.Int("retention_days", cfg.Logging.RetentionDays),
		)
	}
	logConfigSnapshot(logger, cfg)
	for _, failed := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run 'dealflow doctor' for details"),
			logging.String(logging.FieldImpact, "operations using this integration will fail"),
		)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "dealflow.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	components, err := Build(cfg, logger, BuildOptions{History: true})
	if err != nil {
		return err
	}
	defer components.Close()

	server := api.NewServer(components.APIDependencies(), api.Options{Token: cfg.Paths.APIToken}, logger)
	d, err := daemon.New(cfg, server.Handler(), components.Scanner, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("dealflow daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	transport := cfg.EmailTransport()
	if transport == "" {
		transport = "none"
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.Bool("hubspot_key_present", cfg.HubSpot.APIKey != ""),
		logging.Bool("hubspot_portal_present", cfg.HubSpot.PortalID != ""),
		logging.Bool("notion_key_present", cfg.Notion.APIKey != ""),
		logging.Bool("notion_todos_present", cfg.Notion.TodosDB != ""),
		logging.Bool("llm_key_present", cfg.LLM.APIKey != ""),
		logging.Bool("serper_key_present", cfg.Serper.APIKey != ""),
		logging.String("email_transport", transport),
		logging.Bool("reminders_enabled", cfg.Reminders.Enabled),
		logging.String("reminders_run_at", cfg.Reminders.RunAt),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("api_auth", cfg.Paths.APIToken != ""),
	)
}
