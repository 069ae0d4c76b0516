package config

import (
	"os"
	"strconv"
	"time"

	"croco_webapp/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	JWTSecret   string
	DevMode     bool

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limits
	APIRateLimit   int
	APIRateWindow  int
	AuthRateLimit  int
	AuthRateWindow int

	// Hatching economy
	ClaimCycle        time.Duration
	BaseReward        decimal.Decimal
	SweepInterval     time.Duration
	StaleIncubation   time.Duration
	AutoHatchingPrice decimal.Decimal

	// Подтягивать фото профиля через Bot API при логине
	ProfilePhotos bool
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	devMode := os.Getenv("DEV_MODE") == "true"

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if !devMode {
			logger.Fatal("JWT_SECRET is not set")
		}
		jwtSecret = "dev-secret"
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" && !devMode {
		logger.Fatal("BOT_TOKEN is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	cycle := time.Duration(intEnv("CLAIM_CYCLE_HOURS", 4)) * time.Hour

	stale := cycle // по умолчанию один цикл без клейма
	if h := intEnv("STALE_INCUBATION_HOURS", 0); h > 0 {
		stale = time.Duration(h) * time.Hour
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		BotToken:    botToken,
		JWTSecret:   jwtSecret,
		DevMode:     devMode,

		LogLevel: logLevel,
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDBEnv(),

		APIRateLimit:   intEnv("API_RATE_LIMIT", 120), // запросов за ->
		APIRateWindow:  intEnv("API_RATE_WINDOW_SECONDS", 60),
		AuthRateLimit:  intEnv("AUTH_RATE_LIMIT", 20),
		AuthRateWindow: intEnv("AUTH_RATE_WINDOW_SECONDS", 60),

		ClaimCycle:        cycle,
		BaseReward:        decimalEnv("BASE_REWARD", decimal.NewFromInt(144)),
		SweepInterval:     time.Duration(intEnv("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		StaleIncubation:   stale,
		AutoHatchingPrice: decimalEnv("AUTO_HATCHING_PRICE", decimal.NewFromInt(500)),

		ProfilePhotos: os.Getenv("PROFILE_PHOTOS") != "false" && botToken != "",
	}
}

// intEnv returns a positive integer from env or def.
func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn("ignoring invalid config value", "key", key, "value", v)
		return def
	}
	return n
}

func decimalEnv(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		logger.Warn("ignoring invalid config value", "key", key, "value", v)
		return def
	}
	return d
}

// redisDBEnv allows 0, the default Redis database.
func redisDBEnv() int {
	v := os.Getenv("REDIS_DB")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid config value", "key", "REDIS_DB", "value", v)
		return 0
	}
	return n
}
