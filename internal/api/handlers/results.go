package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/models"
)

const defaultRecentLimit = 20

// ResultLister reads archived match results.
type ResultLister interface {
	Recent(ctx context.Context, limit int) ([]models.MatchResult, error)
}

// GetRecentResults returns the latest archived matches. A nil lister means
// the archive is disabled and the list is always empty.
func GetRecentResults(results ResultLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		if results == nil {
			c.JSON(http.StatusOK, gin.H{"results": []models.MatchResult{}, "archive": false})
			return
		}

		limit := defaultRecentLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		list, err := results.Recent(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[API] recent results: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": list, "archive": true})
	}
}
