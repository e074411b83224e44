package cmd

import (
	"context"

	"github.com/wagateway/pkg/config"
	"github.com/wagateway/pkg/database"
	"github.com/wagateway/pkg/domains/gateway"
	"github.com/wagateway/pkg/logger"
	"github.com/wagateway/pkg/push"
	"github.com/wagateway/pkg/scheduler"
	"github.com/wagateway/pkg/server"
	"github.com/wagateway/pkg/utils"
	"go.uber.org/zap"
)

func StartApp() {
	config := config.InitConfig()
	utils.LoadEnv()
	logger.Init(config.Logger)
	database.InitDB(config.Database)

	hub := push.NewHub()

	gateway_repo := gateway.NewRepo(database.DBClient())
	manager := gateway.NewManager(config.Gateway, gateway_repo, hub, gateway.WhatsmeowFactory(config.Gateway))
	manager.StartAll(context.Background())

	sender := gateway.NewSender(manager.Registry(), gateway_repo, config.Gateway)

	sched := scheduler.New(sender)
	if err := sched.Start(); err != nil {
		zap.S().Fatalf("scheduler start failed: %v", err)
	}
	defer sched.Stop()

	server.LaunchHttpServer(config, manager, sender, hub)
}
