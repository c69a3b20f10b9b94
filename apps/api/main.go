package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/devcosts/devcosts/internal/clock"
	"github.com/devcosts/devcosts/internal/config"
	"github.com/devcosts/devcosts/internal/migration"
	"github.com/devcosts/devcosts/internal/observability"
	"github.com/devcosts/devcosts/internal/server"
	"github.com/devcosts/devcosts/pkg/db"
	"go.uber.org/fx"
)

// API-only deployment: the run loop lives in apps/scheduler, batch
// work is still reachable through the cron endpoints.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
