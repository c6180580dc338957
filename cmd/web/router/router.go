package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	corsgin "github.com/rs/cors/wrapper/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"evidenze-chat/cmd/web/auth"
	"evidenze-chat/cmd/web/handlers"
	"evidenze-chat/internal/middleware"
	"evidenze-chat/relay"

	_ "evidenze-chat/docs"
)

func New(responder *relay.Responder, tokens *auth.SessionTokenManager, indexPage []byte) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestTrace())
	r.Use(middleware.Recovery())
	r.Use(corsgin.New(corsOptions()))

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "chat-web"})
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.POST("/chat", handlers.ChatHandler(responder, tokens))
		api.POST("/chat/reset", handlers.ResetHandler(responder, tokens))
	}

	return r
}

func corsOptions() cors.Options {
	origins := []string{"*"}
	if env := os.Getenv("WEB_ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: true,
	}
}
