package lifecycle

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/events"
)

func PostTxProcessingRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Events.POST("/tx-processing", postTxProcessingHandler(s))
}

// postTxProcessingHandler is the integration point for the host's transaction
// watcher: it reports the on-chain hash assigned to a submitted proposal once
// execution begins.
func postTxProcessingHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var event events.TxProcessingEvent
		if err := c.Bind(&event); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if event.TxID == "" || event.TxHash == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "txId and txHash are required")
		}

		s.Bus.Publish(events.TopicTxProcessing, event)

		return c.NoContent(http.StatusNoContent)
	}
}
