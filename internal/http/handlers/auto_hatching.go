package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) PurchaseAutoHatching(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	res, err := h.AutoHatching.Purchase(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "purchase auto hatching", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AutoHatchingStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	status, err := h.AutoHatching.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "auto hatching status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}
