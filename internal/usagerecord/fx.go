package usagerecord

import (
	"github.com/devcosts/devcosts/internal/usagerecord/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("usagerecord",
	fx.Provide(repository.Provide),
)
