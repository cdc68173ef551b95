package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/api/handlers"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/middleware"
)

// Deps are the collaborators the HTTP surface reads from. Results may be nil
// when no database is configured.
type Deps struct {
	Lobby     handlers.LobbyView
	Results   handlers.ResultLister
	Sessions  handlers.SessionIssuer
	WebSocket gin.HandlerFunc
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, deps Deps) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	// Root health check for load balancers
	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/table", handlers.GetTable(cfg))
		v1.GET("/queue", handlers.GetQueue(deps.Lobby))
		v1.GET("/scoreboard", handlers.GetScoreboard(deps.Lobby))
		v1.GET("/match", handlers.GetActiveMatch(deps.Lobby))
		v1.GET("/matches/recent", handlers.GetRecentResults(deps.Results))
		v1.POST("/session", handlers.CreateSession(deps.Sessions))
		v1.GET("/ws", middleware.WebSocketCORSCheck(cfg), deps.WebSocket)
	}
}
