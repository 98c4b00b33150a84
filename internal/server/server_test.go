/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/courtcycle/internal/config"
	"github.com/friendsincode/courtcycle/internal/events"
	"github.com/friendsincode/courtcycle/internal/export"
	"github.com/friendsincode/courtcycle/internal/plans"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Environment:    "test",
		HTTPBind:       "127.0.0.1",
		HTTPPort:       0,
		DBBackend:      config.DatabaseSQLite,
		DBDSN:          filepath.Join(dir, "db", "courtcycle.db"),
		DefaultWeeks:   4,
		StorageBackend: config.StorageFilesystem,
		ExportDir:      filepath.Join(dir, "exports"),
	}
}

func planInput() plans.GenerateInput {
	return plans.GenerateInput{
		Availability:   []string{"mon", "wed", "fri"},
		SessionMinutes: 60,
		Level:          "beginner",
		Equipment:      []string{"ball"},
		Seed:           1,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServerServesHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	for _, path := range []string{"/healthz", "/metrics"} {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s missing security headers", path)
		}
	}
}

func TestServerArchivesExports(t *testing.T) {
	cfg := testConfig(t)
	srv := newTestServer(t, cfg)

	res, err := srv.plans.Generate(context.Background(), planInput())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export/csv?plan_id="+res.PlanID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d body=%s", rr.Code, rr.Body.String())
	}

	archived, err := os.ReadFile(filepath.Join(cfg.ExportDir, export.Key(res.PlanID, export.FormatCSV)))
	if err != nil {
		t.Fatalf("read archived export: %v", err)
	}
	if !strings.HasPrefix(string(archived), "plan_id,week_idx") {
		t.Fatalf("archived export = %q", archived)
	}
}

func TestServerWithoutArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = config.StorageNone
	srv := newTestServer(t, cfg)
	if srv.store != nil {
		t.Fatalf("store = %T, want nil", srv.store)
	}
}

func TestServerRejectsMissingS3Bucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = config.StorageS3
	if _, err := New(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error without an S3 bucket")
	}
}

func TestServerFallsBackWhenNATSUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.NATSURL = "nats://127.0.0.1:1"
	srv := newTestServer(t, cfg)
	if srv.publisher != srv.bus {
		t.Fatal("expected the in-process bus when NATS is unreachable")
	}
}

type recordingInvalidator struct {
	mu    sync.Mutex
	users []string
	seen  chan struct{}
}

func (r *recordingInvalidator) InvalidateHistory(_ context.Context, userID string) error {
	r.mu.Lock()
	r.users = append(r.users, userID)
	r.mu.Unlock()
	r.seen <- struct{}{}
	return nil
}

func TestCacheInvalidationListener(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe(events.EventPlanGenerated)
	inv := &recordingInvalidator{seen: make(chan struct{}, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		runCacheInvalidationListener(ctx, bus, sub, inv, zerolog.Nop())
	}()

	bus.Publish(events.EventPlanGenerated, events.Payload{"plan_id": "p0", "user_id": ""})
	bus.Publish(events.EventPlanGenerated, events.Payload{"plan_id": "p1", "user_id": "u1"})
	select {
	case <-inv.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("history was not invalidated")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	if len(inv.users) != 1 || inv.users[0] != "u1" {
		t.Fatalf("invalidated %v, want [u1]", inv.users)
	}
	if _, ok := <-sub; ok {
		t.Fatal("listener left its subscription open")
	}
}

func TestServerStopsCacheListenerOnClose(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheEnabled = true
	cfg.RedisAddr = "127.0.0.1:1"

	srv, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.cache == nil {
		t.Fatal("expected a disabled cache when redis is unreachable")
	}

	closed := make(chan error, 1)
	go func() { closed <- srv.Close() }()
	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close() hung waiting for background workers")
	}
}
