package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Service owns the prometheus collectors of the provider server.
type Service struct {
	RPCRequests  *prometheus.CounterVec
	RPCErrors    *prometheus.CounterVec
	FlowsOpened  *prometheus.CounterVec
	FlowsSettled *prometheus.CounterVec
}

// New creates the collectors and registers them on the given registerer.
func New(reg prometheus.Registerer) *Service {
	s := &Service{
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_rpc_requests_total",
			Help: "Total JSON-RPC requests dispatched, by method.",
		}, []string{"method"}),
		RPCErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_rpc_errors_total",
			Help: "Total JSON-RPC error envelopes returned, by code.",
		}, []string{"code"}),
		FlowsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_flows_opened_total",
			Help: "Total confirmation flows opened, by kind.",
		}, []string{"kind"}),
		FlowsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_flows_settled_total",
			Help: "Total confirmation flows settled, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(s.RPCRequests, s.RPCErrors, s.FlowsOpened, s.FlowsSettled)

	return s
}

// NewTestService creates collectors on a throwaway registry, for tests.
func NewTestService() *Service {
	return New(prometheus.NewRegistry())
}
