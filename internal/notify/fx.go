package notify

import (
	"github.com/devcosts/devcosts/internal/notify/email"
	"github.com/devcosts/devcosts/internal/notify/pdf"
	"github.com/devcosts/devcosts/internal/notify/slack"
	"go.uber.org/fx"
)

var Module = fx.Module("notify",
	email.Module,
	slack.Module,
	pdf.Module,
)
