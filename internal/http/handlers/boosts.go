package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PurchaseBoostRequest struct {
	BoostItemID int64 `json:"boostItemId" binding:"required,gt=0"`
}

func (h *Handler) CurrentBoosts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	boosts, err := h.Boosts.CurrentBoosts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "current boosts", err)
		return
	}
	c.JSON(http.StatusOK, boosts)
}

func (h *Handler) PurchaseBoost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req PurchaseBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "boostItemId is required"})
		return
	}

	res, err := h.Boosts.PurchaseBoost(c.Request.Context(), userID, req.BoostItemID)
	if err != nil {
		respondError(c, "purchase boost", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
