package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/safehost/go-provider/internal/api"
)

func GetSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/session", getSessionHandler(s))
}

func getSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := s.Session()
		if session == nil {
			return echo.NewHTTPError(http.StatusNotFound, "no active session")
		}

		return c.JSON(http.StatusOK, sessionResponse{
			SafeAddress: session.Provider.Safe().SafeAddress,
			ChainID:     session.Provider.Safe().ChainID,
			AppName:     session.App.Name,
			AppURL:      session.App.URL,
		})
	}
}

type sessionResponse struct {
	SafeAddress string `json:"safeAddress"`
	ChainID     uint64 `json:"chainId"`
	AppName     string `json:"appName,omitempty"`
	AppURL      string `json:"appUrl,omitempty"`
}
