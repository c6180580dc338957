package main

import (
	"context"
	_ "embed"
	"log"
	"net/http"
	"os"

	"evidenze-chat/cmd/web/auth"
	"evidenze-chat/cmd/web/router"
	"evidenze-chat/config"
	"evidenze-chat/internal/logger"
	"evidenze-chat/relay"
)

//go:embed static/index.html
var indexPage []byte

// @title           Evidenze Chat Web API
// @version         1.0
// @description     Web widget for the Evidenze AI assistant
// @BasePath        /api/v1
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	responder, closeBus, err := relay.FromConfig(context.Background(), cfg, "WebChat/1.0")
	if err != nil {
		log.Fatal(err)
	}

	tokens, err := auth.NewSessionTokenManagerFromEnv()
	if err != nil {
		closeBus()
		log.Fatal(err)
	}

	r := router.New(responder, tokens, indexPage)

	addr := ":8000"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		// flush pending events before exiting
		closeBus()
		log.Fatal(err)
	}
	closeBus()
}
