package main

import (
	"github.com/wagateway/app/cmd"
)

// @title Messaging Gateway API
// @version 1.0
// @description Multi-tenant messaging gateway with session management, auto-replies, webhooks and scheduled sends.

// @host  localhost:8000
// @BasePath /api/v1

func main() {
	cmd.StartApp()
}
