package session

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/flow"
)

type putSessionBody struct {
	SafeAddress string `json:"safeAddress"`
	ChainID     uint64 `json:"chainId"`
	AppName     string `json:"appName"`
	AppURL      string `json:"appUrl"`
}

func PutSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.PUT("/session", putSessionHandler(s))
}

// putSessionHandler replaces the active session. Chain and account context is
// immutable per provider instance, so switching either means a full rebuild.
func putSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body putSessionBody
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		if !common.IsHexAddress(body.SafeAddress) {
			return echo.NewHTTPError(http.StatusBadRequest, "safeAddress is not a valid address")
		}
		if _, err := s.Chains.Get(body.ChainID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown chain id")
		}

		if err := s.RebuildSession(body.SafeAddress, body.ChainID, flow.AppInfo{
			Name: body.AppName,
			URL:  body.AppURL,
		}); err != nil {
			return err
		}

		return c.JSON(http.StatusOK, sessionResponse{
			SafeAddress: s.Session().Provider.Safe().SafeAddress,
			ChainID:     s.Session().Provider.Safe().ChainID,
			AppName:     body.AppName,
			AppURL:      body.AppURL,
		})
	}
}
