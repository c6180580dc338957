package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"evidenze-chat/cmd/bot/connector"
	"evidenze-chat/cmd/bot/router"
	"evidenze-chat/config"
	"evidenze-chat/credential"
	"evidenze-chat/internal/logger"
	"evidenze-chat/relay"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	responder, closeBus, err := relay.FromConfig(context.Background(), cfg, "Teams-Bot/1.0")
	if err != nil {
		log.Fatal(err)
	}

	// without an app registration the connector runs unauthenticated
	// (local / emulator mode)
	var provider credential.Provider
	if cfg.Bot.AppID != "" && cfg.Bot.AppPassword != "" {
		provider = credential.NewCached(credential.NewBotFramework(cfg.Bot.AppID, cfg.Bot.AppPassword))
	}
	conn := connector.New(provider)

	r := router.New(responder, conn, cfg.Phrases.Processing)

	addr := ":3978"
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
