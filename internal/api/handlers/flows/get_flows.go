package flows

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
)

func GetFlowsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Flows.GET("", getFlowsHandler(s))
}

// getFlowsHandler lists the confirmation flows currently awaiting a human.
func getFlowsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.Flows.List())
	}
}
