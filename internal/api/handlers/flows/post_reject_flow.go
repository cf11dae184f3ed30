package flows

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
)

func PostRejectFlowRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Flows.POST("/:id/reject", postRejectFlowHandler(s))
}

// postRejectFlowHandler dismisses a pending flow, rejecting the RPC request
// that opened it.
func postRejectFlowHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.Flows.Reject(ctx, c.Param("id")); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}

		return c.NoContent(http.StatusNoContent)
	}
}
