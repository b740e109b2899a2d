package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerUsesConfig(t *testing.T) {
	cfg := &Config{Port: "9090", HTTPReadTimeout: time.Second, HTTPWriteTimeout: 2 * time.Second, HTTPIdleTimeout: 3 * time.Second}
	s := NewHTTPServer(cfg, http.NotFoundHandler())
	if s.Addr() != ":9090" {
		t.Fatalf("addr = %q", s.Addr())
	}
	if s.server.WriteTimeout != 2*time.Second || s.server.IdleTimeout != 3*time.Second {
		t.Fatalf("timeouts = %v/%v", s.server.WriteTimeout, s.server.IdleTimeout)
	}
}

func TestHTTPServerStartAfterShutdown(t *testing.T) {
	s := NewHTTPServer(&Config{Port: "0"}, http.NotFoundHandler())
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start after shutdown = %v, want nil", err)
	}
}
