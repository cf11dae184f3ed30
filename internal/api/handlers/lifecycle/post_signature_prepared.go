package lifecycle

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/events"
)

func PostSignaturePreparedRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Events.POST("/signature-prepared", postSignaturePreparedHandler(s))
}

// postSignaturePreparedHandler reports a signature produced outside the flow
// confirmation endpoint, e.g. by a signer device. The first event matching a
// pending request id settles that request.
func postSignaturePreparedHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var event events.SignaturePreparedEvent
		if err := c.Bind(&event); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if event.RequestID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "requestId is required")
		}

		s.Bus.Publish(events.TopicSignaturePrepared, event)

		return c.NoContent(http.StatusNoContent)
	}
}
