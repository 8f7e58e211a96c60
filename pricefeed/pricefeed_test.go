package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetSpot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "ethereum" {
			t.Errorf("ids = %q, want ethereum", got)
		}
		if got := r.URL.Query().Get("vs_currencies"); got != "btc" {
			t.Errorf("vs_currencies = %q, want btc", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ethereum":{"btc":0.052}}`))
	}))
	defer srv.Close()

	f := NewCoinGeckoFeed()
	f.baseURL = srv.URL
	f.client = srv.Client()

	price, err := f.GetSpot(context.Background(), "BTC-ETH")
	if err != nil {
		t.Fatalf("GetSpot: %v", err)
	}
	if price != 0.052 {
		t.Fatalf("price = %v, want 0.052", price)
	}
}

func TestGetSpotUnknownAsset(t *testing.T) {
	f := NewCoinGeckoFeed()
	if _, err := f.GetSpot(context.Background(), "BTC-XYZ"); err == nil {
		t.Fatal("expected error for unsupported asset")
	}
	if _, err := f.GetSpot(context.Background(), "BTCETH"); err == nil {
		t.Fatal("expected error for malformed market")
	}
}

func TestPriceCache(t *testing.T) {
	c := NewPriceCache()
	if _, ok := c.Get("BTC-ETH"); ok {
		t.Fatal("empty cache returned a price")
	}
	c.Set("BTC-ETH", 0.05)
	p, ok := c.Get("BTC-ETH")
	if !ok || p != 0.05 {
		t.Fatalf("got %v, %v", p, ok)
	}
}
