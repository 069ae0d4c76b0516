package http

import (
	"time"

	"croco_webapp/internal/config"
	"croco_webapp/internal/http/handlers"
	"croco_webapp/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Per-user limit on state-changing endpoints, on top of the per-IP API limit.
const (
	actionRateLimit  = 30
	actionRateWindow = time.Minute
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, cfg *config.Config) {
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiRateWindow := time.Duration(cfg.APIRateWindow) * time.Second
	authRateWindow := time.Duration(cfg.AuthRateWindow) * time.Second

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit("api", cfg.APIRateLimit, apiRateWindow))
	registerAPIRoutes(v1, h, cfg.AuthRateLimit, authRateWindow)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, authRateLimit int, authRateWindow time.Duration) {
	// Auth
	api.POST("/auth/login", middleware.RedisRateLimit("auth", authRateLimit, authRateWindow), h.Auth)

	// Public rankings
	api.GET("/user/referrer-rankings", h.GetReferrerRankings)
	api.GET("/user/croco-rankings", h.GetCrocoRankings)

	// Everything below needs a session; POSTs drop the caller's cached profile
	authed := api.Group("")
	authed.Use(middleware.JWT(), middleware.InvalidateUserCache(h.Cache))

	actionRL := middleware.UserRateLimit(actionRateLimit, actionRateWindow)

	user := authed.Group("/user")
	{
		user.GET("/me", h.Me)
		user.POST("/claim-token", actionRL, h.ClaimToken)
		user.POST("/start-hatching", actionRL, h.StartHatching)
		user.POST("/stop-hatching/:eggId", actionRL, h.StopHatching)

		user.GET("/speed-list", h.SpeedList)
		user.GET("/boost-list", h.BoostList)
		user.GET("/fish-list", h.FishList)

		user.GET("/referees/:referralCode", h.GetReferees)
		user.GET("/referral-chain", h.GetReferralChain)
	}

	boosts := authed.Group("/boosts")
	{
		boosts.GET("/current", h.CurrentBoosts)
		boosts.POST("/purchase", actionRL, h.PurchaseBoost)
	}

	speed := authed.Group("/speed-upgrade")
	{
		speed.GET("/packages", h.GetSpeedPackages)
		speed.GET("/current-level", h.GetSpeedLevel)
		speed.POST("/select/:packageId", actionRL, h.SelectSpeedPackage)
		speed.POST("/purchase", actionRL, h.PurchaseSpeedUpgrade)
	}

	auto := authed.Group("/auto-hatching")
	{
		auto.POST("/purchase", actionRL, h.PurchaseAutoHatching)
		auto.GET("/status", h.AutoHatchingStatus)
	}
}
