package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"croco_webapp/internal/cache"
	"croco_webapp/internal/config"
	"croco_webapp/internal/db"
	httpServer "croco_webapp/internal/http"
	"croco_webapp/internal/http/handlers"
	"croco_webapp/internal/http/middleware"
	"croco_webapp/internal/logger"
	"croco_webapp/internal/migrations"
	"croco_webapp/internal/repository"
	"croco_webapp/internal/scheduler"
	"croco_webapp/internal/service"
	"croco_webapp/internal/telegram"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrations.Up(cfg.DatabaseURL); err != nil {
		logger.Fatal("migrations failed", "error", err)
	}

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	rdb, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// без Redis работаем с локальным лимитером и без кэша
		logger.Warn("redis unavailable, continuing without it", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}
	middleware.InitRedisRateLimiter(rdb)

	var photos telegram.PhotoSource
	if cfg.ProfilePhotos {
		bp, err := telegram.NewBotPhotos(cfg.BotToken)
		if err != nil {
			logger.Warn("profile photo lookup disabled", "error", err)
		} else {
			photos = bp
		}
	}

	store := repository.NewPgStore(dbPool)
	h := handlers.NewHandler(store, handlers.HandlerConfig{
		BotToken:          cfg.BotToken,
		DevMode:           cfg.DevMode,
		ClaimCycle:        cfg.ClaimCycle,
		BaseReward:        cfg.BaseReward,
		AutoHatchingPrice: cfg.AutoHatchingPrice,
	}, photos, cache.NewUserCache(rdb, cache.DefaultUserTTL))

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, h, handlers.NewHealthHandler(dbPool, rdb, version), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := service.NewSweeper(store, time.Now, cfg.StaleIncubation)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Every(gctx, cfg.SweepInterval, "sweeper", func(ctx context.Context) error {
			sweeper.Sweep(ctx)
			return nil
		})
	})

	g.Go(func() error {
		return scheduler.Every(gctx, cfg.SweepInterval, "auto_hatching", func(ctx context.Context) error {
			n, err := h.AutoHatching.ProcessDue(ctx)
			if n > 0 {
				logger.Info("auto hatching pass", "claimed", n)
			}
			return err
		})
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return
	}
	logger.Info("server exited")
}
