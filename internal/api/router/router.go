package router

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/api/handlers"
	"github/safehost/go-provider/internal/api/middleware"
	"github/safehost/go-provider/internal/config"
)

// Init sets up the echo instance, middleware stack and all route groups,
// then attaches the handlers.
func Init(s *api.Server) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("provider"))
	e.Use(middleware.Logger(config.LogLevelFromString(s.Config.Logger.RequestLevel)))

	s.Echo = e
	s.Router = &api.Router{
		Root:        e.Group(""),
		Management:  e.Group("/-"),
		APIV1:       e.Group("/api/v1"),
		APIV1RPC:    e.Group("/api/v1/rpc"),
		APIV1Flows:  e.Group("/api/v1/flows"),
		APIV1Events: e.Group("/api/v1/events"),
	}

	s.Router.Management.GET("/metrics", echoprometheus.NewHandler())

	handlers.AttachAllRoutes(s)
}
