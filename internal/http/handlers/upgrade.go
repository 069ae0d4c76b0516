package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetSpeedPackages returns the ladder rungs the caller can see.
func (h *Handler) GetSpeedPackages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	packages, err := h.Speed.AvailableUpgrades(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "speed packages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

func (h *Handler) GetSpeedLevel(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	level, err := h.Speed.CurrentLevel(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "speed level", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": level})
}

func (h *Handler) SelectSpeedPackage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	packageID, err := strconv.ParseInt(c.Param("packageId"), 10, 64)
	if err != nil || packageID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return
	}

	res, err := h.Speed.SelectPackage(c.Request.Context(), userID, packageID)
	if err != nil {
		respondError(c, "select speed package", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) PurchaseSpeedUpgrade(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	res, err := h.Speed.PurchaseUpgrade(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "purchase speed upgrade", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
