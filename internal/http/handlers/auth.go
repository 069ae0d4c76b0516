package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"croco_webapp/internal/logger"
	"croco_webapp/internal/service"
	"croco_webapp/internal/telegram"

	"github.com/gin-gonic/gin"
)

const devFallbackTelegramID = 12345

type AuthRequest struct {
	InitData     string `json:"init_data"`
	ReferralCode string `json:"referral_code"`
}

func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	var (
		tgUser     *telegram.WebAppUser
		startParam string
	)

	if h.DevMode {
		// DEV MODE: пропускаем валидацию подписи
		u, err := telegram.ParseUser(req.InitData)
		if err != nil {
			u = &telegram.WebAppUser{
				ID:        devFallbackTelegramID,
				Username:  "testuser" + strconv.Itoa(devFallbackTelegramID),
				FirstName: "Test",
			}
		}
		tgUser = u
	} else {
		values, err := telegram.ValidateInitData(req.InitData, h.BotToken, h.now())
		if err != nil {
			status := "invalid init data"
			if errors.Is(err, telegram.ErrStaleInitData) {
				status = "init data expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": status})
			return
		}
		u, err := telegram.UserFromValues(values)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user data"})
			return
		}
		tgUser = u
		startParam = values.Get("start_param")
	}

	// код из тела запроса приоритетнее start_param
	code := req.ReferralCode
	if code == "" {
		code = startParam
	}

	res, err := h.Accounts.Login(c.Request.Context(), service.LoginRequest{
		User:         tgUser,
		ReferralCode: code,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, "login", err)
		return
	}

	if !res.IsNew {
		h.Cache.Invalidate(c.Request.Context(), res.User.ID)
	}
	logger.WithContext(c.Request.Context()).Info("user logged in", "user_id", res.User.ID, "new", res.IsNew)

	c.JSON(http.StatusOK, res)
}
