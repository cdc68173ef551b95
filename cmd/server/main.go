package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/eightball/internal/api"
	"github.com/playmatatu/eightball/internal/api/handlers"
	"github.com/playmatatu/eightball/internal/archive"
	"github.com/playmatatu/eightball/internal/auth"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/database"
	"github.com/playmatatu/eightball/internal/events"
	"github.com/playmatatu/eightball/internal/lobby"
	"github.com/playmatatu/eightball/internal/migrations"
	"github.com/playmatatu/eightball/internal/redis"
	"github.com/playmatatu/eightball/internal/scoreboard"
	"github.com/playmatatu/eightball/internal/ws"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Initialize configuration (.env is loaded by config.Load)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Result archive (optional)
	var (
		db       *sqlx.DB
		recorder lobby.Recorder
		results  handlers.ResultLister
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		store := archive.NewStore(db)
		recorder = store
		results = store
		log.Printf("[ARCHIVE] Match results will be stored in Postgres")
	} else {
		log.Printf("[ARCHIVE] DATABASE_URL not set - match results are not archived")
	}

	// Event bus (Redis fan-out when configured)
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		log.Printf("[EVENTS] Relaying events through Redis channel %s", cfg.EventsChannel)
	} else {
		log.Printf("[EVENTS] REDIS_URL not set - delivering events in-process")
	}

	hub := ws.NewHub()
	bus := events.NewBus(rdb, cfg.EventsChannel, hub)

	board := scoreboard.New(cfg.ScoreWindow())
	scheduler := lobby.New(lobby.Config{
		TickInterval:  cfg.TickInterval(),
		BroadcastHz:   cfg.BroadcastHz,
		HoldDuration:  cfg.HoldDuration(),
		NameMaxLength: cfg.NameMaxLength,
	}, lobby.SystemClock{}, bus, hub, board, recorder)
	defer scheduler.Close()

	hub.SetLobby(scheduler)
	go hub.Run(ctx)
	go bus.Run(ctx)

	issuer := auth.NewIssuer(cfg.SessionSecret, cfg.SessionTTL())

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api.SetupRoutes(router, cfg, api.Deps{
		Lobby:     scheduler,
		Results:   results,
		Sessions:  issuer,
		WebSocket: hub.HandleWebSocket(issuer),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting eightball server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
