package flows

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/flow"
)

func PostConfirmFlowRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Flows.POST("/:id/confirm", postConfirmFlowHandler(s))
}

// postConfirmFlowHandler completes a pending flow with the outcome the human
// side produced: a signature for signature flows, the proposal ids for
// transaction flows.
func postConfirmFlowHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var outcome flow.ConfirmOutcome
		if err := c.Bind(&outcome); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		if err := s.Flows.Confirm(ctx, c.Param("id"), outcome); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}

		return c.NoContent(http.StatusNoContent)
	}
}
