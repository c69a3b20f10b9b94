package slack

import (
	"net/http"

	"github.com/devcosts/devcosts/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("notify.slack",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, client *http.Client) Provider {
	if cfg.Slack.WebhookURL == "" {
		return &NoOpProvider{}
	}
	return NewWebhook(client, cfg.Slack.WebhookURL)
}
