package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"evidenze-chat/cmd/bot/connector"
	"evidenze-chat/cmd/bot/handlers"
	"evidenze-chat/internal/middleware"
	"evidenze-chat/relay"
)

func New(responder *relay.Responder, conn *connector.Client, processing string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestTrace())
	r.Use(middleware.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Evidenze Teams Bot",
			"status":  "online",
		})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "chat-bot"})
	})

	r.POST("/api/messages", handlers.MessagesHandler(responder, conn, processing))

	return r
}
