package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/lobby"
	"github.com/playmatatu/eightball/internal/scoreboard"
)

// LobbyView is the read side of the scheduler.
type LobbyView interface {
	Queue() lobby.QueueUpdate
	Standings() []scoreboard.Entry
	ActiveMatch() (game.Snapshot, bool)
	Hold() (lobby.HoldStatus, bool)
}

// GetQueue returns the waiting names in admission order and the champion
// hold, if one is pending.
func GetQueue(l LobbyView) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{"queue": l.Queue()}
		if hold, ok := l.Hold(); ok {
			resp["hold"] = hold
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetScoreboard returns wins inside the scoreboard window.
func GetScoreboard(l LobbyView) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"standings": l.Standings()})
	}
}

// GetActiveMatch returns the match on the table.
func GetActiveMatch(l LobbyView) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := l.ActiveMatch()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "No match in progress"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
