package handlers

import (
	"errors"
	"net/http"
	"time"

	"croco_webapp/internal/cache"
	"croco_webapp/internal/logger"
	"croco_webapp/internal/repository"
	"croco_webapp/internal/service"
	"croco_webapp/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// HandlerConfig holds configuration for handler
type HandlerConfig struct {
	BotToken          string
	DevMode           bool
	ClaimCycle        time.Duration
	BaseReward        decimal.Decimal
	AutoHatchingPrice decimal.Decimal
	AgeTable          telegram.AgeTable
}

type Handler struct {
	BotToken string
	DevMode  bool

	Accounts     *service.AccountService
	Eggs         *service.EggService
	Claims       *service.ClaimService
	Boosts       *service.BoostService
	Speed        *service.SpeedUpgradeService
	AutoHatching *service.AutoHatchingService
	Catalog      *service.CatalogService
	Referrals    *service.ReferralService
	Audit        *service.AuditService

	Cache *cache.UserCache
	now   func() time.Time
}

// NewHandler wires every service over one store. photos and uc may be nil.
func NewHandler(store repository.Store, cfg HandlerConfig, photos telegram.PhotoSource, uc *cache.UserCache) *Handler {
	clock := service.Clock(time.Now)
	if cfg.AgeTable == nil {
		cfg.AgeTable = telegram.DefaultAgeTable
	}

	audit := service.NewAuditService(store)
	eggs := service.NewEggService(store, clock, audit)
	claims := service.NewClaimService(store, clock, cfg.ClaimCycle, cfg.BaseReward)

	return &Handler{
		BotToken:     cfg.BotToken,
		DevMode:      cfg.DevMode,
		Accounts:     service.NewAccountService(store, eggs, clock, cfg.ClaimCycle, cfg.AgeTable, photos, audit),
		Eggs:         eggs,
		Claims:       claims,
		Boosts:       service.NewBoostService(store, clock, audit),
		Speed:        service.NewSpeedUpgradeService(store, clock, audit),
		AutoHatching: service.NewAutoHatchingService(store, claims, clock, cfg.AutoHatchingPrice, audit),
		Catalog:      service.NewCatalogService(store, clock),
		Referrals:    service.NewReferralService(store),
		Audit:        audit,
		Cache:        uc,
		now:          time.Now,
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c interface{ Get(any) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// requireUser пишет 401 и возвращает false, если JWT не отработал
func requireUser(c *gin.Context) (int64, bool) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return userID, ok
}

// respondError maps service errors to HTTP statuses. Internal causes are logged, not returned.
func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrEggNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "egg not found"})
	case errors.Is(err, service.ErrActiveEggExists):
		c.JSON(http.StatusConflict, gin.H{"error": "active egg exists"})
	default:
		userID, _ := getUserID(c)
		logger.WithContext(c.Request.Context()).Error("request failed", "op", op, "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
