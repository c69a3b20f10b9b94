package alert

import (
	"github.com/devcosts/devcosts/internal/alert/evaluator"
	"github.com/devcosts/devcosts/internal/alert/repository"
	"github.com/devcosts/devcosts/internal/alert/service"
	"go.uber.org/fx"
)

var Module = fx.Module("alert",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(evaluator.New),
)
