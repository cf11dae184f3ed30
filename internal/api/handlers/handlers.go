package handlers

import (
	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/api/handlers/common"
	"github/safehost/go-provider/internal/api/handlers/flows"
	"github/safehost/go-provider/internal/api/handlers/jsonrpc"
	"github/safehost/go-provider/internal/api/handlers/lifecycle"
	"github/safehost/go-provider/internal/api/handlers/session"
)

// AttachAllRoutes attaches all registered routes to the server's route groups.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
		jsonrpc.PostRPCRoute(s),
		flows.GetFlowsRoute(s),
		flows.PostConfirmFlowRoute(s),
		flows.PostRejectFlowRoute(s),
		lifecycle.PostTxProcessingRoute(s),
		lifecycle.PostSignaturePreparedRoute(s),
		session.GetSessionRoute(s),
		session.PutSessionRoute(s),
	}
}
