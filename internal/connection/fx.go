package connection

import (
	"github.com/devcosts/devcosts/internal/connection/repository"
	"github.com/devcosts/devcosts/internal/connection/service"
	"go.uber.org/fx"
)

var Module = fx.Module("connection.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
