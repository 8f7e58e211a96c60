package pricefeed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PriceCache stores latest reference prices for markets in memory.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]float64
}

func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]float64)}
}

func (c *PriceCache) Set(market string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[market] = price
}

func (c *PriceCache) Get(market string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[market]
	return p, ok
}

// StartPriceUpdater periodically refreshes prices for the given markets
// until ctx is done.
func StartPriceUpdater(
	ctx context.Context,
	feed PriceFeed,
	cache *PriceCache,
	markets []string,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refreshOnce(ctx, feed, cache, markets, log)

	for {
		select {
		case <-ticker.C:
			refreshOnce(ctx, feed, cache, markets, log)
		case <-ctx.Done():
			return
		}
	}
}

func refreshOnce(ctx context.Context, feed PriceFeed, cache *PriceCache, markets []string, log *zap.Logger) {
	for _, m := range markets {
		price, err := feed.GetSpot(ctx, m)
		if err != nil {
			log.Warn("price update failed", zap.String("market", m), zap.Error(err))
			continue
		}
		cache.Set(m, price)
		log.Info("price update", zap.String("market", m), zap.Float64("price", price))
	}
}
