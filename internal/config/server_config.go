package config

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EchoServer holds the HTTP transport settings.
type EchoServer struct {
	ListenAddress      string
	HideInternalRoutes bool
}

// LoggerServer holds the logging settings.
type LoggerServer struct {
	Level              string
	RequestLevel       string
	PrettyPrintConsole bool
}

// Upstream holds the read-only blockchain RPC settings (the proxy target).
type Upstream struct {
	RPCURLs        []string
	RequestTimeout int // seconds
}

// Gateway holds the Safe client-gateway settings.
type Gateway struct {
	BaseURL        string
	RequestTimeout int // seconds
}

// Session holds the default Safe session settings the server boots with.
type Session struct {
	SafeAddress     string
	ChainID         uint64
	SafeVersion     string
	OffChainSigning bool
}

// Notify holds the notification emitter settings.
type Notify struct {
	WebhookURL string
}

// Server is the root configuration object, fully resolvable from ENV.
type Server struct {
	Echo     EchoServer
	Logger   LoggerServer
	Upstream Upstream
	Gateway  Gateway
	Session  Session
	Notify   Notify
}

// DefaultServiceConfigFromEnv returns the server config resolved from ENV,
// with sane defaults for local development.
func DefaultServiceConfigFromEnv() Server {
	v := viper.New()
	v.SetEnvPrefix("PROVIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("echo.listen_address", ":8080")
	v.SetDefault("echo.hide_internal_routes", true)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.request_level", "debug")
	v.SetDefault("logger.pretty_print_console", false)
	v.SetDefault("upstream.rpc_urls", []string{"http://localhost:8545"})
	v.SetDefault("upstream.request_timeout", 30)
	v.SetDefault("gateway.base_url", "https://safe-client.safe.global")
	v.SetDefault("gateway.request_timeout", 30)
	v.SetDefault("session.safe_address", "")
	v.SetDefault("session.chain_id", 1)
	v.SetDefault("session.safe_version", "1.3.0")
	v.SetDefault("session.offchain_signing", true)
	v.SetDefault("notify.webhook_url", "")

	return Server{
		Echo: EchoServer{
			ListenAddress:      v.GetString("echo.listen_address"),
			HideInternalRoutes: v.GetBool("echo.hide_internal_routes"),
		},
		Logger: LoggerServer{
			Level:              v.GetString("logger.level"),
			RequestLevel:       v.GetString("logger.request_level"),
			PrettyPrintConsole: v.GetBool("logger.pretty_print_console"),
		},
		Upstream: Upstream{
			RPCURLs:        v.GetStringSlice("upstream.rpc_urls"),
			RequestTimeout: v.GetInt("upstream.request_timeout"),
		},
		Gateway: Gateway{
			BaseURL:        v.GetString("gateway.base_url"),
			RequestTimeout: v.GetInt("gateway.request_timeout"),
		},
		Session: Session{
			SafeAddress:     v.GetString("session.safe_address"),
			ChainID:         v.GetUint64("session.chain_id"),
			SafeVersion:     v.GetString("session.safe_version"),
			OffChainSigning: v.GetBool("session.offchain_signing"),
		},
		Notify: Notify{
			WebhookURL: v.GetString("notify.webhook_url"),
		},
	}
}

// LogLevelFromString parses a zerolog level, defaulting to info.
func LogLevelFromString(s string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}

	return l
}
