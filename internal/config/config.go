package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr        string
	DatabaseURL       string // empty disables deal persistence
	EngineBuffer      int
	Markets           []string // e.g. "BTC-ETH,USDT-BTC"
	PriceFeedInterval time.Duration
}

func Default() Config {
	return Config{
		ListenAddr:        ":8080",
		EngineBuffer:      1024,
		Markets:           []string{"BTC-ETH"},
		PriceFeedInterval: 30 * time.Second,
	}
}

// Load reads configuration from the environment, with an optional .env
// file underneath. Priority: ENV > .env > defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if buf := os.Getenv("ENGINE_BUFFER"); buf != "" {
		if n, err := strconv.Atoi(buf); err == nil && n > 0 {
			cfg.EngineBuffer = n
		}
	}
	if markets := os.Getenv("MARKETS"); markets != "" {
		cfg.Markets = cfg.Markets[:0]
		for _, m := range strings.Split(markets, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Markets = append(cfg.Markets, m)
			}
		}
	}
	if iv := os.Getenv("PRICEFEED_INTERVAL_MS"); iv != "" {
		if ms, err := strconv.Atoi(iv); err == nil && ms > 0 {
			cfg.PriceFeedInterval = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}
