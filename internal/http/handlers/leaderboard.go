package handlers

import (
	"net/http"
	"strconv"

	"croco_webapp/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	defaultRankingLimit = 100
	maxRankingLimit     = 100
)

func rankingLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 || n > maxRankingLimit {
		return defaultRankingLimit
	}
	return n
}

// GetReferrerRankings returns users ordered by number of direct referees.
func (h *Handler) GetReferrerRankings(c *gin.Context) {
	top, err := h.Referrals.TopReferrers(c.Request.Context(), rankingLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rankings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": nonNil(top)})
}

// GetCrocoRankings returns users ordered by croco balance.
func (h *Handler) GetCrocoRankings(c *gin.Context) {
	top, err := h.Referrals.TopCroco(c.Request.Context(), rankingLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rankings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": nonNil(top)})
}

func nonNil(entries []domain.RankEntry) []domain.RankEntry {
	if entries == nil {
		return []domain.RankEntry{}
	}
	return entries
}
