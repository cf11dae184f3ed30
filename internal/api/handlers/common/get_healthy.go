package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// getHealthyHandler is the liveness probe: the process is up and serving.
func getHealthyHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy.")
	}
}
