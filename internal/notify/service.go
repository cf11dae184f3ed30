package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Notification is one user-facing alert about an app requesting an action
// while the wallet UI is not focused.
type Notification struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	AppName string `json:"appName,omitempty"`
	AppURL  string `json:"appUrl,omitempty"`
}

// Service emits desktop-style notifications. Delivery is fire-and-forget:
// failures are logged, never propagated to the caller.
type Service interface {
	Notify(ctx context.Context, n Notification)
}

type service struct {
	client     *resty.Client
	webhookURL string
}

// NewService creates a notification emitter. An empty webhook URL disables
// external delivery; notifications are then only logged.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(webhookURL string) Service {
	return &service{
		client:     resty.New().SetTimeout(10 * time.Second),
		webhookURL: webhookURL,
	}
}

// Notify emits the notification without blocking the caller.
func (s *service) Notify(ctx context.Context, n Notification) {
	log.Info().
		Str("title", n.Title).
		Str("body", n.Body).
		Str("app", n.AppName).
		Msg("Notification")

	if s.webhookURL == "" {
		return
	}

	go func() {
		_, err := s.client.R().
			SetBody(n).
			Post(s.webhookURL)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to deliver notification webhook")
		}
	}()
}

// NewNopService returns an emitter that drops all notifications, for tests.
//
//nolint:ireturn
func NewNopService() Service {
	return &service{client: resty.New(), webhookURL: ""}
}
