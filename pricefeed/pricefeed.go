package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// PriceFeed reports a reference spot price for a market symbol like
// "BTC-ETH" (primary/settlement asset first). The price is how much of
// the primary asset one unit of the secondary asset is worth.
type PriceFeed interface {
	GetSpot(ctx context.Context, market string) (float64, error)
}

// CoinGeckoFeed implements PriceFeed using the public CoinGecko API.
type CoinGeckoFeed struct {
	client  *http.Client
	baseURL string
	ids     map[string]string // asset symbol -> CoinGecko id
}

func NewCoinGeckoFeed() *CoinGeckoFeed {
	return &CoinGeckoFeed{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: "https://api.coingecko.com/api/v3",
		ids: map[string]string{
			"BTC":  "bitcoin",
			"ETH":  "ethereum",
			"USDT": "tether",
			"USD":  "usd",
		},
	}
}

func (f *CoinGeckoFeed) splitMarket(market string) (id, vs string, err error) {
	primary, secondary, ok := strings.Cut(market, "-")
	if !ok {
		return "", "", fmt.Errorf("malformed market symbol: %s", market)
	}
	id, ok = f.ids[secondary]
	if !ok {
		return "", "", fmt.Errorf("unsupported asset: %s", secondary)
	}
	return id, strings.ToLower(primary), nil
}

// GetSpot returns the spot price of the market's secondary asset
// denominated in its primary asset.
func (f *CoinGeckoFeed) GetSpot(ctx context.Context, market string) (float64, error) {
	id, vs, err := f.splitMarket(market)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", f.baseURL, id, vs)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coingecko: unexpected status %d", resp.StatusCode)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}

	entry, ok := body[id]
	if !ok {
		return 0, fmt.Errorf("coingecko: no price for %s", id)
	}
	price, ok := entry[vs]
	if !ok {
		return 0, fmt.Errorf("coingecko: no %s quote for %s", vs, id)
	}
	return price, nil
}
