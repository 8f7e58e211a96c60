package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	exdb "github.com/hydraex/exchange-core/db"
	"github.com/hydraex/exchange-core/internal/config"
	"github.com/hydraex/exchange-core/internal/core"
	"github.com/hydraex/exchange-core/internal/engine"
	"github.com/hydraex/exchange-core/internal/feed"
	"github.com/hydraex/exchange-core/internal/logging"
	"github.com/hydraex/exchange-core/pricefeed"
)

type openAccountRequest struct {
	ID        string `json:"id"`
	Market    string `json:"market"`
	Role      string `json:"role"` // "BUY" | "SELL"
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type placeOrderRequest struct {
	ID        string `json:"id"` // client-supplied uuid; generated when empty
	AccountID string `json:"account_id"`
	Market    string `json:"market"`
	Side      string `json:"side"` // "BUY" | "SELL"
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
}

type placeOrderResponse struct {
	OrderID    string              `json:"order_id"`
	Market     string              `json:"market"`
	Side       string              `json:"side"`
	Status     core.Status         `json:"status"`
	Remaining  decimal.Decimal     `json:"remaining"`
	Resting    bool                `json:"resting"`
	Deals      []engine.DealRecord `json:"deals"`
	RequestID  string              `json:"request_id"`
	ReceivedAt time.Time           `json:"received_at"`
}

func main() {
	ctx := context.Background()

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	registry, err := buildRegistry(cfg.Markets)
	if err != nil {
		logger.Fatal("invalid MARKETS", zap.Error(err))
	}

	var store engine.DealStore
	var dealStore *exdb.DealStore
	if cfg.DatabaseURL != "" {
		pool, err := exdb.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connect failed", zap.Error(err))
		}
		defer pool.Close()
		dealStore = exdb.NewDealStore(pool)
		store = dealStore
	}

	hub := feed.NewHub[engine.DealRecord]()
	eng := engine.NewEngine(cfg.EngineBuffer, registry, store, hub, logger)
	go eng.Run(ctx)

	cache := pricefeed.NewPriceCache()
	go pricefeed.StartPriceUpdater(ctx, pricefeed.NewCoinGeckoFeed(), cache,
		cfg.Markets, cfg.PriceFeedInterval, logger)

	r := chi.NewRouter()

	// Hygiene stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(3 * time.Second))

	writeProblem := func(w http.ResponseWriter, r *http.Request, code int, title, detail string) {
		reqID := middleware.GetReqID(r.Context())
		w.Header().Set("Content-Type", "application/problem+json")
		w.Header().Set("X-Request-ID", reqID)
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title":      title,
			"status":     code,
			"detail":     detail,
			"instance":   r.URL.Path,
			"request_id": reqID,
		})
	}

	// POST /accounts
	r.Post("/accounts", func(w http.ResponseWriter, r *http.Request) {
		var req openAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, r, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		acctReq, err := toAccountRequest(req)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		if err := eng.OpenAccount(r.Context(), acctReq); err != nil {
			writeProblem(w, r, statusFor(err), "account_rejected", err.Error())
			return
		}
		w.Header().Set("Location", "/accounts/"+acctReq.ID)
		w.WriteHeader(http.StatusCreated)
	})

	// POST /orders
	r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, r, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		placeReq, err := toPlaceRequest(req)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		res, err := eng.Place(r.Context(), placeReq)
		if err != nil {
			writeProblem(w, r, statusFor(err), "order_rejected", err.Error())
			return
		}

		rid := middleware.GetReqID(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "/orders/"+placeReq.ID)
		w.Header().Set("X-Request-ID", rid)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(placeOrderResponse{
			OrderID:    placeReq.ID,
			Market:     placeReq.Market,
			Side:       string(placeReq.Side),
			Status:     res.Status,
			Remaining:  res.Remaining,
			Resting:    res.Resting,
			Deals:      res.Deals,
			RequestID:  rid,
			ReceivedAt: time.Now().UTC(),
		})
	})

	// DELETE /orders/{id}
	r.Delete("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ok, err := eng.Cancel(r.Context(), id)
		if err != nil {
			writeProblem(w, r, http.StatusInternalServerError, "engine_error", err.Error())
			return
		}
		if !ok {
			writeProblem(w, r, http.StatusNotFound, "not_found", "order not found")
			return
		}
		w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	// GET /deals?order_id=...
	r.Get("/deals", func(w http.ResponseWriter, r *http.Request) {
		if dealStore == nil {
			writeProblem(w, r, http.StatusServiceUnavailable, "no_store", "deal persistence is disabled")
			return
		}
		orderID := r.URL.Query().Get("order_id")
		if orderID == "" {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", "order_id required")
			return
		}
		deals, err := dealStore.ListDealsByOrder(r.Context(), orderID)
		if err != nil {
			writeProblem(w, r, http.StatusInternalServerError, "db_error", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
		_ = json.NewEncoder(w).Encode(deals)
	})

	// GET /markets/{symbol}/spot
	r.Get("/markets/{symbol}/spot", func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		if _, ok := registry.Lookup(symbol); !ok {
			writeProblem(w, r, http.StatusNotFound, "not_found", "unknown market")
			return
		}
		price, ok := cache.Get(symbol)
		if !ok {
			writeProblem(w, r, http.StatusServiceUnavailable, "no_price", "reference price not available yet")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"market": symbol, "spot": price})
	})

	// GET /ws/deals
	r.Get("/ws/deals", feed.Handler(hub, logger))

	logger.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildRegistry(markets []string) (*engine.Registry, error) {
	pairs := make([]core.Pair, 0, len(markets))
	for _, m := range markets {
		primary, secondary, ok := strings.Cut(m, "-")
		if !ok {
			return nil, errors.New("market symbols must look like PRIMARY-SECONDARY")
		}
		pair, err := core.NewPair(core.NewAsset(primary, primary), core.NewAsset(secondary, secondary))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return engine.NewRegistry(pairs...), nil
}

func toAccountRequest(req openAccountRequest) (engine.AccountRequest, error) {
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	role := engine.Side(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role != engine.SideBuy && role != engine.SideSell {
		return engine.AccountRequest{}, errors.New("role must be BUY or SELL")
	}
	primary, err := decimal.NewFromString(req.Primary)
	if err != nil {
		return engine.AccountRequest{}, errors.New("primary must be a decimal amount")
	}
	secondary, err := decimal.NewFromString(req.Secondary)
	if err != nil {
		return engine.AccountRequest{}, errors.New("secondary must be a decimal amount")
	}
	return engine.AccountRequest{
		ID:        req.ID,
		Market:    strings.TrimSpace(req.Market),
		Role:      role,
		Primary:   primary,
		Secondary: secondary,
	}, nil
}

func toPlaceRequest(req placeOrderRequest) (engine.PlaceRequest, error) {
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else if _, err := uuid.Parse(req.ID); err != nil {
		return engine.PlaceRequest{}, errors.New("id must be a valid uuid")
	}
	if strings.TrimSpace(req.AccountID) == "" {
		return engine.PlaceRequest{}, errors.New("account_id is required")
	}
	side := engine.Side(strings.ToUpper(strings.TrimSpace(req.Side)))
	if side != engine.SideBuy && side != engine.SideSell {
		return engine.PlaceRequest{}, errors.New("side must be BUY or SELL")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return engine.PlaceRequest{}, errors.New("price must be a positive decimal")
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || !quantity.IsPositive() {
		return engine.PlaceRequest{}, errors.New("quantity must be a positive decimal")
	}
	return engine.PlaceRequest{
		ID:        req.ID,
		AccountID: strings.TrimSpace(req.AccountID),
		Market:    strings.TrimSpace(req.Market),
		Side:      side,
		Price:     price,
		Quantity:  quantity,
	}, nil
}

func statusFor(err error) int {
	var balErr *core.BalanceError
	switch {
	case errors.As(err, &balErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrUnknownMarket),
		errors.Is(err, engine.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrDuplicateAccount),
		errors.Is(err, engine.ErrDuplicateOrder):
		return http.StatusConflict
	case errors.Is(err, engine.ErrRoleMismatch):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
