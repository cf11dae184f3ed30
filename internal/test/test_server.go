package test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/api/router"
	"github/safehost/go-provider/internal/config"
	"github/safehost/go-provider/internal/metrics"
	"github/safehost/go-provider/internal/notify"
)

// DefaultTestConfig returns the server config for tests: no default session,
// no outbound webhook.
func DefaultTestConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Session.SafeAddress = ""
	cfg.Notify.WebhookURL = ""
	cfg.Logger.PrettyPrintConsole = false

	return cfg
}

// WithTestServer creates a fully initialized server with the default test
// config and passes it to the closure.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultTestConfig(), closure)
}

// WithTestServerConfigurable is WithTestServer with a custom config.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s := api.NewServer(cfg)

	// use an isolated metrics registry and a silent notifier so parallel
	// tests do not interfere
	s.Metrics = metrics.NewTestService()
	s.Notify = notify.NewNopService()

	require.NoError(t, s.InitComponents())

	// router.Init registers the echoprometheus collectors on the prometheus
	// default registerer, which panics on re-registration when several test
	// servers are created in one process; point it at a fresh registry per
	// server to keep the isolation promised above.
	prevRegisterer, prevGatherer := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	registry := prometheus.NewRegistry()
	prometheus.DefaultRegisterer, prometheus.DefaultGatherer = registry, registry
	router.Init(s)
	prometheus.DefaultRegisterer, prometheus.DefaultGatherer = prevRegisterer, prevGatherer

	defer func() {
		if err := s.Shutdown(context.Background()); err != nil {
			t.Logf("failed to shut down test server: %v", err)
		}
	}()

	closure(s)
}
