package api

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github/safehost/go-provider/internal/chains"
	"github/safehost/go-provider/internal/config"
	"github/safehost/go-provider/internal/events"
	"github/safehost/go-provider/internal/flow"
	"github/safehost/go-provider/internal/gateway"
	"github/safehost/go-provider/internal/metrics"
	"github/safehost/go-provider/internal/notify"
	"github/safehost/go-provider/internal/provider"
	"github/safehost/go-provider/internal/rpc"
)

// Session is one active (chain, account, app) provider instance. It is
// replaced wholesale on chain or account switch; per-session pending-tx state
// lives and dies with it.
type Session struct {
	Provider *provider.SafeWalletProvider
	SDK      flow.Service
	App      flow.AppInfo
}

// Router keeps the echo route groups handlers attach to.
type Router struct {
	Routes      []*echo.Route
	Root        *echo.Group
	Management  *echo.Group
	APIV1RPC    *echo.Group
	APIV1Flows  *echo.Group
	APIV1Events *echo.Group
	APIV1       *echo.Group
}

// Server is the central struct keeping all the dependencies. Components are
// initialized by InitComponents in dependency order; the composition root is
// small enough to wire by hand.
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config   config.Server
	Bus      *events.Bus
	Chains   *chains.Registry
	Gateway  gateway.Service
	Upstream *rpc.Client
	Notify   notify.Service
	Metrics  *metrics.Service
	Flows    flow.Host

	sessionMu sync.RWMutex
	session   *Session
}

// NewServer creates an uninitialized server carrying only its config.
func NewServer(cfg config.Server) *Server {
	return &Server{Config: cfg}
}

// InitComponents wires all server components and boots the default session.
// Components that were injected beforehand (tests) are left untouched.
func (s *Server) InitComponents() error {
	if s.Bus == nil {
		s.Bus = events.NewBus()
	}
	if s.Chains == nil {
		s.Chains = chains.NewDefaultRegistry()
	}
	if s.Gateway == nil {
		s.Gateway = gateway.NewService(s.Config.Gateway.BaseURL, time.Duration(s.Config.Gateway.RequestTimeout)*time.Second)
	}
	if s.Notify == nil {
		s.Notify = notify.NewService(s.Config.Notify.WebhookURL)
	}
	if s.Metrics == nil {
		s.Metrics = metrics.New(prometheus.DefaultRegisterer)
	}
	if s.Flows == nil {
		s.Flows = flow.NewController(s.Bus, s.Metrics)
	}

	if s.Upstream == nil {
		upstream, err := rpc.NewClient(s.Config.Upstream.RPCURLs, time.Duration(s.Config.Upstream.RequestTimeout)*time.Second)
		if err != nil {
			return errors.Wrap(err, "failed to create upstream RPC client")
		}
		s.Upstream = upstream
	}

	if s.Config.Session.SafeAddress != "" {
		if err := s.RebuildSession(s.Config.Session.SafeAddress, s.Config.Session.ChainID, flow.AppInfo{}); err != nil {
			return errors.Wrap(err, "failed to boot default session")
		}
	}

	return nil
}

// Session returns the active session, or nil before one was established.
func (s *Server) Session() *Session {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()

	return s.session
}

// RebuildSession discards the active session and constructs a fresh
// provider/adapter pair for the given (chain, account, app) tuple.
func (s *Server) RebuildSession(safeAddress string, chainID uint64, app flow.AppInfo) error {
	sdk, err := flow.NewService(
		flow.Config{
			ChainID:         chainID,
			SafeAddress:     safeAddress,
			SafeVersion:     s.Config.Session.SafeVersion,
			OffChainSigning: s.Config.Session.OffChainSigning,
			Navigate: func(targetChainID uint64) {
				if err := s.RebuildSession(safeAddress, targetChainID, app); err != nil {
					log.Error().Err(err).Uint64("chain_id", targetChainID).Msg("Failed to switch session chain")
				}
			},
		},
		s.Chains,
		s.Gateway,
		s.Upstream,
		s.Bus,
		s.Flows,
		s.Notify,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create flow adapter")
	}

	p := provider.NewSafeWalletProvider(provider.SafeInfo{
		SafeAddress: safeAddress,
		ChainID:     chainID,
	}, sdk, app)

	s.sessionMu.Lock()
	previous := s.session
	s.session = &Session{Provider: p, SDK: sdk, App: app}
	s.sessionMu.Unlock()

	if previous != nil {
		previous.SDK.Close()
	}

	log.Info().
		Str("safe", safeAddress).
		Uint64("chain_id", chainID).
		Str("app", app.Name).
		Msg("Session established")

	return nil
}

// Ready reports whether all components are initialized.
func (s *Server) Ready() bool {
	return s.Echo != nil &&
		s.Router != nil &&
		s.Bus != nil &&
		s.Chains != nil &&
		s.Gateway != nil &&
		s.Upstream != nil &&
		s.Notify != nil &&
		s.Metrics != nil &&
		s.Flows != nil
}

// Start runs the HTTP transport until Shutdown is called.
func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return errors.Wrap(err, "failed to start echo server")
	}

	return nil
}

// Shutdown stops the HTTP transport and releases held connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Upstream != nil {
		s.Upstream.Close()
	}

	if session := s.Session(); session != nil {
		session.SDK.Close()
	}

	if s.Echo != nil {
		return s.Echo.Shutdown(ctx)
	}

	return nil
}
