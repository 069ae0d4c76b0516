package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SpeedList(c *gin.Context) {
	items, err := h.Catalog.SpeedList(c.Request.Context())
	if err != nil {
		respondError(c, "speed list", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) BoostList(c *gin.Context) {
	items, err := h.Catalog.BoostList(c.Request.Context())
	if err != nil {
		respondError(c, "boost list", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// FishList is display only, fish are bought outside the app.
func (h *Handler) FishList(c *gin.Context) {
	items, err := h.Catalog.FishList(c.Request.Context())
	if err != nil {
		respondError(c, "fish list", err)
		return
	}
	c.JSON(http.StatusOK, items)
}
