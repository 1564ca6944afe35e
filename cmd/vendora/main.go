package main

import (
	"github.com/apexmarket/vendora/internal/config"
	"github.com/apexmarket/vendora/internal/logger"
	"github.com/apexmarket/vendora/internal/server"
	"github.com/apexmarket/vendora/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
