package daemon_test

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"dealflow/internal/daemon"
	"dealflow/internal/logging"
	"dealflow/internal/reminders"
	"dealflow/internal/testsupport"
)

type countingScanner struct {
	calls atomic.Int32
}

func (s *countingScanner) RunDailyScan(context.Context) reminders.Result {
	s.calls.Add(1)
	return reminders.Result{Success: true}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	d, err := daemon.New(cfg, handler, &countingScanner{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.APIAddress == "" {
		t.Fatal("expected api address")
	}
	if status.NextScan.IsZero() {
		t.Fatal("expected next scan time when reminders are enabled")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + status.APIAddress + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	other, err := daemon.New(cfg, nil, &countingScanner{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("expected lock contention error")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonWithoutReminders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Reminders.Enabled = false
	d, err := daemon.New(cfg, nil, &countingScanner{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	status := d.Status()
	if status.APIAddress != "" || !status.NextScan.IsZero() {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestNewRequiresScanner(t *testing.T) {
	_, err := daemon.New(testsupport.NewConfig(t), nil, nil, nil)
	if err == nil {
		t.Fatal("expected constructor error without scanner")
	}
}
