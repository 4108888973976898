package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestStartReturnsNilAfterGracefulShutdown(t *testing.T) {
	cfg := &Config{
		Port:                  "0",
		HTTPReadTimeout:       time.Second,
		HTTPReadHeaderTimeout: time.Second,
		HTTPWriteTimeout:      time.Second,
		HTTPIdleTimeout:       time.Second,
	}
	srv := NewHTTPServer(cfg, http.NewServeMux())

	started := make(chan error, 1)
	go func() { started <- srv.Start() }()

	// Give the listener a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-started:
		if err != nil {
			t.Fatalf("Start returned %v after graceful shutdown, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Start did not return after shutdown")
	}
}

func TestHTTPServerTimeoutsFromConfig(t *testing.T) {
	cfg := &Config{
		Port:                  "8080",
		HTTPReadTimeout:       15 * time.Second,
		HTTPReadHeaderTimeout: 5 * time.Second,
		HTTPWriteTimeout:      30 * time.Second,
		HTTPIdleTimeout:       60 * time.Second,
	}
	srv := NewHTTPServer(cfg, http.NewServeMux())

	if srv.server.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("ReadHeaderTimeout = %v, want 5s", srv.server.ReadHeaderTimeout)
	}
	if srv.server.Addr != ":8080" {
		t.Fatalf("Addr = %q", srv.server.Addr)
	}
}
