package vault

import (
	"github.com/devcosts/devcosts/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("vault",
	fx.Provide(func(cfg config.Config) (*Vault, error) {
		return New(cfg.EncryptionKey)
	}),
)
