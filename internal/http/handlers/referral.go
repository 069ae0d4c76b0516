package handlers

import (
	"net/http"
	"strings"

	"croco_webapp/internal/referral"

	"github.com/gin-gonic/gin"
)

// GetReferees lists users invited with the given code.
func (h *Handler) GetReferees(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	code := strings.ToUpper(strings.TrimSpace(c.Param("referralCode")))
	if len(code) != referral.CodeLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referral code"})
		return
	}

	referees, err := h.Referrals.Referees(c.Request.Context(), code)
	if err != nil {
		respondError(c, "referees", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referral_code": code,
		"count":         len(referees),
		"referees":      referees,
	})
}

// GetReferralChain returns the caller's upline with each level's reward share.
func (h *Handler) GetReferralChain(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	chain, err := h.Referrals.Chain(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "referral chain", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chain": chain})
}
