package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const jsonContentType = "application/json; charset=utf-8"

// Me returns the caller's profile, served from the per-user cache when warm.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if body, hit := h.Cache.Get(ctx, userID, c.FullPath()); hit {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, jsonContentType, body)
		return
	}

	profile, err := h.Accounts.Profile(ctx, userID)
	if err != nil {
		respondError(c, "profile", err)
		return
	}

	body, err := json.Marshal(profile)
	if err != nil {
		respondError(c, "profile encode", err)
		return
	}
	h.Cache.Set(ctx, userID, c.FullPath(), body)

	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, jsonContentType, body)
}
