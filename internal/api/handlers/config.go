package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/game"
)

// GetTable returns the table geometry and the physics constants a renderer
// needs to draw and predict shots.
func GetTable(cfg *config.Config) gin.HandlerFunc {
	table := game.NewStandard8BallTable()

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"table":           table,
			"friction":        game.Friction,
			"stop_epsilon":    game.StopEpsilon,
			"cue_impulse":     game.CueImpulse,
			"max_power":       game.MaxPower,
			"cue_start":       game.CueStart,
			"tick_ms":         cfg.TickMs,
			"broadcast_hz":    cfg.BroadcastHz,
			"hold_seconds":    cfg.ChampionHoldSeconds,
			"name_max_length": cfg.NameMaxLength,
		})
	}
}
