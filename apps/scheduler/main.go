package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/devcosts/devcosts/internal/alert"
	"github.com/devcosts/devcosts/internal/clock"
	"github.com/devcosts/devcosts/internal/config"
	"github.com/devcosts/devcosts/internal/connection"
	"github.com/devcosts/devcosts/internal/lock"
	"github.com/devcosts/devcosts/internal/notify"
	"github.com/devcosts/devcosts/internal/observability"
	"github.com/devcosts/devcosts/internal/provider"
	"github.com/devcosts/devcosts/internal/scheduler"
	"github.com/devcosts/devcosts/internal/sync"
	"github.com/devcosts/devcosts/internal/usagerecord"
	"github.com/devcosts/devcosts/internal/vault"
	"github.com/devcosts/devcosts/pkg/db"
	"go.uber.org/fx"
)

// Scheduler-only deployment: runs the sync and alert jobs, no HTTP
// surface beyond what the infra modules expose.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		vault.Module,
		provider.Module,
		connection.Module,
		usagerecord.Module,
		sync.Module,
		notify.Module,
		alert.Module,

		scheduler.Module,
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
