package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"contactbook/internal/client"
	"contactbook/internal/config"
	"contactbook/internal/data/contacts"
	apperrors "contactbook/internal/errors"
	"contactbook/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Store.Path = filepath.Join(t.TempDir(), "contacts.db")
	cfg.Store.BusyTimeout = time.Second
	return &cfg
}

func TestRunStopsOnClientShutdown(t *testing.T) {
	log := logger.NewMockLogger()
	app := NewServer(testConfig(t), log)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(context.Background()) }()

	url := waitForAddr(t, app)
	c := client.New(url, client.WithTimeout(2*time.Second))
	ctx := context.Background()

	if _, err := c.Add(ctx, contacts.Contact{Name: "Ana", Phone: "555-0001", Address: "Calle 1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown request")
	}

	if !log.HasEntry(logger.LevelInfo, "shutdown requested by client") {
		t.Fatal("expected shutdown log entry")
	}
	if _, err := c.List(ctx, ""); !client.IsConnectionError(err) {
		t.Fatalf("expected connection error after shutdown, got %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app := NewServer(testConfig(t), logger.NewMockLogger())
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()
	waitForAddr(t, app)

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAwaitReturnsServeFailure(t *testing.T) {
	app := NewServer(testConfig(t), logger.NewMockLogger())
	failed := make(chan error, 1)
	failed <- errors.New("accept: use of closed network connection")

	errCh := make(chan error, 1)
	go func() { errCh <- app.await(context.Background(), make(chan struct{}), failed) }()

	select {
	case err := <-errCh:
		if apperrors.CategoryOf(err) != apperrors.ErrCategoryNetwork {
			t.Fatalf("expected NETWORK error, got %v", err)
		}
		if appErr, _ := apperrors.As(err); appErr.Operation != "app.serve" {
			t.Fatalf("unexpected operation %q", appErr.Operation)
		}
	case <-time.After(time.Second):
		t.Fatal("await kept waiting after a serve failure")
	}
}

func TestAwaitStopConditions(t *testing.T) {
	app := NewServer(testConfig(t), logger.NewMockLogger())

	done := make(chan struct{})
	close(done)
	if err := app.await(context.Background(), done, make(chan error)); err != nil {
		t.Fatalf("client shutdown must not be an error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.await(ctx, make(chan struct{}), make(chan error)); err != nil {
		t.Fatalf("cancellation must not be an error, got %v", err)
	}
}

func TestDataSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first := NewServer(cfg, logger.NewMockLogger())
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c := client.New("http://" + first.Addr())
	if _, err := c.Add(ctx, contacts.Contact{Name: "Ana", Phone: "555-0001", Address: "Calle 1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := first.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	second := NewServer(cfg, logger.NewMockLogger())
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	t.Cleanup(func() { _ = second.Stop(ctx) })

	list, err := client.New("http://" + second.Addr()).List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Ana" {
		t.Fatalf("expected persisted contact, got %+v", list)
	}
}

func TestStartFailsWhenAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.Addr = ln.Addr().String()
	app := NewServer(cfg, logger.NewMockLogger())

	err = app.Start(context.Background())
	if err == nil {
		_ = app.Stop(context.Background())
		t.Fatal("expected bind failure")
	}
	if apperrors.CategoryOf(err) != apperrors.ErrCategoryNetwork {
		t.Fatalf("expected NETWORK category, got %s (%v)", apperrors.CategoryOf(err), err)
	}
	appErr, _ := apperrors.As(err)
	if appErr.Operation != "app.listen" {
		t.Fatalf("unexpected operation %q", appErr.Operation)
	}
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	steps := []StartupStep{
		{Name: "one", Operation: "op.one", Fn: func(context.Context) error { ran = append(ran, "one"); return nil }},
		{Name: "two", Operation: "op.two", Category: apperrors.ErrCategoryDatabase, Fn: func(context.Context) error { ran = append(ran, "two"); return boom }},
		{Name: "three", Operation: "op.three", Fn: func(context.Context) error { ran = append(ran, "three"); return nil }},
	}

	err := NewPipeline(logger.NewMockLogger(), steps, wrapStepError).Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected execution to stop after step two, ran %v", ran)
	}
	if !apperrors.HasCode(err, apperrors.CodeDatabaseGeneric) {
		t.Fatalf("expected database code, got %s", apperrors.CodeOf(err))
	}
}

func TestPipelineKeepsStepAppError(t *testing.T) {
	inner := apperrors.ConflictError(apperrors.CodeDuplicateName, "dup", nil)
	steps := []StartupStep{{Name: "x", Operation: "op.x", Fn: func(context.Context) error { return inner }}}

	err := NewPipeline(nil, steps, wrapStepError).Execute(context.Background())
	if !apperrors.HasCode(err, apperrors.CodeDuplicateName) {
		t.Fatalf("expected original code, got %v", err)
	}
	if inner.Operation != "op.x" {
		t.Fatalf("expected operation to be filled in, got %q", inner.Operation)
	}
}

func waitForAddr(t *testing.T, app *App) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if app.Done() != nil {
			url := "http://" + app.Addr()
			resp, err := http.Get(url + "/healthz")
			if err == nil {
				resp.Body.Close()
				return url
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start")
	return ""
}
