package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/auth"
)

// SessionIssuer mints participant sessions.
type SessionIssuer interface {
	Issue() (auth.Session, error)
}

// CreateSession issues a fresh participant id and its token. The token is
// passed back on the ws upgrade.
func CreateSession(issuer SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := issuer.Issue()
		if err != nil {
			log.Printf("[API] issue session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}
