package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// retainedPattern matches the active log and its rotated copies.
const retainedPattern = "dealflow*.log*"

// CleanupOldLogs removes dealflow log files in dir whose modification time
// is more than retentionDays old and returns how many were removed. The
// active LogFileName is never touched, nor are unrelated files. A
// retentionDays of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		WarnWithContext(logger, "log retention skipped", "log_retention_skipped",
			String("dir", dir),
			Error(err),
			String(FieldErrorHint, "check paths.log_dir exists and is readable"),
			String(FieldImpact, "old log files are kept"),
		)
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == LogFileName {
			continue
		}
		if matched, _ := filepath.Match(retainedPattern, name); !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
