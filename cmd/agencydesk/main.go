package main

import (
	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/migration"
	"github.com/agencydesk/agencydesk/internal/observability"
	"github.com/agencydesk/agencydesk/internal/server"
	"github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
