package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ClaimToken pays the periodic reward. Refusals come back as 200 with success=false.
func (h *Handler) ClaimToken(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	res, err := h.Claims.ClaimReward(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "claim", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) StartHatching(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	res, err := h.Eggs.StartHatching(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "start hatching", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) StopHatching(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	eggID, err := strconv.ParseInt(c.Param("eggId"), 10, 64)
	if err != nil || eggID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid egg id"})
		return
	}

	res, err := h.Eggs.StopHatching(c.Request.Context(), userID, eggID)
	if err != nil {
		respondError(c, "stop hatching", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
