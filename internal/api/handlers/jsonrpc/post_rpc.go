package jsonrpc

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/rpc"
	"github/safehost/go-provider/internal/util"
)

// rpcRequestBody is the wire form of one embedded-app JSON-RPC call arriving
// over the HTTP transport.
type rpcRequestBody struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

func PostRPCRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1RPC.POST("", postRPCHandler(s))
}

// postRPCHandler is the single entry point an embedded app's requests are
// wired to. The response is always a JSON-RPC envelope with HTTP status 200;
// request-level failures surface inside the envelope, not as HTTP errors.
func postRPCHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body rpcRequestBody
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if body.Method == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "method is required")
		}

		session := s.Session()
		if session == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "no active session")
		}

		s.Metrics.RPCRequests.WithLabelValues(body.Method).Inc()

		envelope := session.Provider.Request(ctx, body.ID, rpc.Request{
			Method: body.Method,
			Params: body.Params,
		})

		if envelope.Error != nil {
			s.Metrics.RPCErrors.WithLabelValues(strconv.Itoa(int(envelope.Error.Code))).Inc()
			log.Debug().
				Str("rpc_method", body.Method).
				Int("code", int(envelope.Error.Code)).
				Msg("RPC request answered with error envelope")
		}

		return c.JSON(http.StatusOK, envelope)
	}
}
