package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"partyrooms/internal/game"
	"partyrooms/internal/logger"
)

type Config struct {
	AppPort     string
	DatabaseURL string

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BotToken      string
	NotifyEnabled bool
	// ссылка на мини-приложение в /help бота
	AppURL string

	AllowedOrigins []string
	TokenTTL       time.Duration

	// лимит на запись: запросов в секунду и всплеск
	RateLimitRPS   float64
	RateLimitBurst int

	// cron выражение с секундами
	SweepSpec         string
	FinishedRetention time.Duration

	Game game.Config
}

// Load читает .env (если есть) и переменные окружения. Ошибка конфига - фатальна
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to read .env", "error", err)
	}
	cfg, err := FromEnv()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv собирает конфиг только из окружения
func FromEnv() (*Config, error) {
	var errs []string
	seconds := func(key string, def time.Duration) time.Duration {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be a positive number of seconds", key))
			return def
		}
		return time.Duration(n) * time.Second
	}
	duration := func(key string, def time.Duration) time.Duration {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be a positive duration", key))
			return def
		}
		return d
	}
	number := func(key string, def int) int {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Sprintf("%s must be a non-negative integer", key))
			return def
		}
		return n
	}

	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogJSON:           os.Getenv("LOG_FORMAT") == "json",
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           number("REDIS_DB", 0),
		BotToken:          os.Getenv("BOT_TOKEN"),
		NotifyEnabled:     os.Getenv("NOTIFY_ENABLED") == "true",
		AppURL:            os.Getenv("APP_URL"),
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),
		TokenTTL:          duration("TOKEN_TTL", 24*time.Hour),
		RateLimitBurst:    number("RATE_LIMIT_BURST", 10),
		SweepSpec:         getEnv("SWEEP_SPEC", "@every 1s"),
		FinishedRetention: duration("FINISHED_RETENTION", 30*time.Minute),
	}

	cfg.RateLimitRPS = 5
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			errs = append(errs, "RATE_LIMIT_RPS must be a positive number")
		} else {
			cfg.RateLimitRPS = rps
		}
	}

	mafia := game.DefaultMafiaConfig()
	mafia.Night = seconds("MAFIA_NIGHT_SECONDS", mafia.Night)
	mafia.Day = seconds("MAFIA_DAY_SECONDS", mafia.Day)
	mafia.Settle = seconds("MAFIA_SETTLE_SECONDS", mafia.Settle)
	if path := os.Getenv("MAFIA_ROLE_TABLE"); path != "" {
		roles, err := game.LoadRoleTable(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("MAFIA_ROLE_TABLE: %v", err))
		} else {
			mafia.Roles = roles
		}
	}
	poker := game.DefaultPokerConfig()
	poker.Turn = seconds("POKER_TURN_SECONDS", poker.Turn)
	poker.Showdown = seconds("POKER_SHOWDOWN_SECONDS", poker.Showdown)
	cfg.Game = game.Config{Mafia: mafia, Poker: poker}

	if cfg.NotifyEnabled && cfg.BotToken == "" {
		errs = append(errs, "NOTIFY_ENABLED requires BOT_TOKEN")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
