package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hydraex/exchange-core/internal/core"
)

var (
	ErrUnknownMarket    = errors.New("unknown market")
	ErrUnknownAccount   = errors.New("unknown account")
	ErrDuplicateAccount = errors.New("account id already in use")
	ErrDuplicateOrder   = errors.New("order id already resting")
	ErrRoleMismatch     = errors.New("account role does not allow this order side")
	ErrEngineStopped    = errors.New("engine is not running")
)

// Account is one participant's role-restricted balance on one market.
// Exactly one of Buyer/Seller is set, according to Role.
type Account struct {
	ID     string
	Market string
	Role   Side
	Buyer  *core.BuyerBalance
	Seller *core.SellerBalance
}

// DealStore persists executed deals. The engine treats persistence as
// best-effort: a store failure is logged, not surfaced to the trader.
type DealStore interface {
	SaveDeals(ctx context.Context, deals []DealRecord) error
}

// DealFeed receives every executed deal for fan-out to subscribers.
type DealFeed interface {
	Broadcast(DealRecord)
}

// Engine owns the books and accounts of its markets and processes
// commands on a single goroutine. That serialization is what lets the
// lock-free core mutate orders and balances safely.
type Engine struct {
	registry *Registry
	books    map[string]*Book
	accounts map[string]*Account
	cmds     chan Command
	done     chan struct{}
	seq      uint64

	store DealStore // optional
	feed  DealFeed  // optional
	log   *zap.Logger
}

func NewEngine(buffer int, registry *Registry, store DealStore, feed DealFeed, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	books := make(map[string]*Book)
	for _, symbol := range registry.Symbols() {
		pair, _ := registry.Lookup(symbol)
		books[symbol] = NewBook(pair)
	}
	return &Engine{
		registry: registry,
		books:    books,
		accounts: make(map[string]*Account),
		cmds:     make(chan Command, buffer),
		done:     make(chan struct{}),
		store:    store,
		feed:     feed,
		log:      log,
	}
}

func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case cmd := <-e.cmds:
			switch cmd.Type {
			case CmdOpenAccount:
				cmd.Resp <- accountReply{Err: e.handleOpenAccount(cmd.Account)}
			case CmdPlace:
				res, err := e.handlePlace(ctx, cmd.Place)
				cmd.Resp <- placeReply{Result: res, Err: err}
			case CmdCancel:
				cmd.Resp <- cancelReply{OK: e.handleCancel(cmd.ID)}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) handleOpenAccount(req *AccountRequest) error {
	if _, ok := e.registry.Lookup(req.Market); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMarket, req.Market)
	}
	if _, ok := e.accounts[req.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, req.ID)
	}
	pair, _ := e.registry.Lookup(req.Market)

	acct := &Account{ID: req.ID, Market: req.Market, Role: req.Role}
	switch req.Role {
	case SideBuy:
		bal, err := core.NewBuyerBalance(pair, req.Primary, req.Secondary)
		if err != nil {
			return err
		}
		acct.Buyer = bal
	case SideSell:
		bal, err := core.NewSellerBalance(pair, req.Primary, req.Secondary)
		if err != nil {
			return err
		}
		acct.Seller = bal
	default:
		return fmt.Errorf("invalid account role %q", req.Role)
	}
	e.accounts[req.ID] = acct

	e.log.Info("account opened",
		zap.String("account", req.ID),
		zap.String("market", req.Market),
		zap.String("role", string(req.Role)))
	return nil
}

func (e *Engine) handlePlace(ctx context.Context, req *PlaceRequest) (*PlaceResult, error) {
	book, ok := e.books[req.Market]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, req.Market)
	}
	if book.Contains(req.ID) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, req.ID)
	}
	acct, ok := e.accounts[req.AccountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, req.AccountID)
	}
	if acct.Market != req.Market || acct.Role != req.Side {
		return nil, ErrRoleMismatch
	}

	e.seq++
	var res *PlaceResult
	switch req.Side {
	case SideBuy:
		order, err := core.NewBuyOrder(book.Pair(), req.Quantity, req.Price, acct.Buyer, e.seq)
		if err != nil {
			return nil, err
		}
		res = e.matchBuy(book, req.ID, order)
	case SideSell:
		order, err := core.NewSellOrder(book.Pair(), req.Quantity, req.Price, acct.Seller, e.seq)
		if err != nil {
			return nil, err
		}
		res = e.matchSell(book, req.ID, order)
	default:
		return nil, fmt.Errorf("invalid order side %q", req.Side)
	}

	if len(res.Deals) > 0 {
		if e.store != nil {
			if err := e.store.SaveDeals(ctx, res.Deals); err != nil {
				e.log.Error("persist deals failed", zap.Error(err))
			}
		}
		if e.feed != nil {
			for _, d := range res.Deals {
				e.feed.Broadcast(d)
			}
		}
		for _, d := range res.Deals {
			e.log.Info("deal executed",
				zap.String("market", d.Market),
				zap.String("taker", d.TakerOrderID),
				zap.String("maker", d.MakerOrderID),
				zap.String("type", string(d.Type)),
				zap.String("price", d.Price.String()),
				zap.String("quantity", d.Quantity.String()))
		}
	}
	return res, nil
}

// matchBuy crosses an incoming buy against the resting asks, cheapest
// first, until the order empties or the book uncrosses. Settlement
// releases every unconsumed escrow, so both the taker's and the maker's
// remainders are re-funded after each deal before anything else trades
// against them.
func (e *Engine) matchBuy(book *Book, id string, o *core.BuyOrder) *PlaceResult {
	deals := make([]DealRecord, 0)
	funded := true

	for o.Status() != core.StatusEmpty {
		lvl := book.bestAsk()
		if lvl == nil || lvl.price.GreaterThan(o.Price()) {
			break
		}
		maker := lvl.orders.Front().Value.(*resting)

		deal, err := core.NewMatcher(o, maker.sell).Matching()
		if err != nil {
			e.log.Error("match rejected against resting ask", zap.Error(err))
			break
		}
		deals = append(deals, e.record(book, id, maker.id, deal))

		if o.Status() != core.StatusEmpty {
			if err := o.ReserveRemaining(); err != nil {
				e.log.Error("re-reserve of taker remainder failed",
					zap.String("order", id), zap.Error(err))
				funded = false
				break
			}
		}
		if maker.sell.Status() == core.StatusEmpty {
			book.popFront(SideSell, lvl)
			continue
		}
		if err := maker.sell.ReserveRemaining(); err != nil {
			e.log.Error("re-reserve failed, evicting maker",
				zap.String("order", maker.id), zap.Error(err))
			book.popFront(SideSell, lvl)
		}
	}

	res := &PlaceResult{OrderID: id, Deals: deals, Remaining: o.Remaining(), Status: o.Status()}
	if o.Status() == core.StatusEmpty || !funded {
		return res
	}
	book.AddBuy(id, o)
	res.Resting = true
	return res
}

func (e *Engine) matchSell(book *Book, id string, o *core.SellOrder) *PlaceResult {
	deals := make([]DealRecord, 0)
	funded := true

	for o.Status() != core.StatusEmpty {
		lvl := book.bestBid()
		if lvl == nil || lvl.price.LessThan(o.Price()) {
			break
		}
		maker := lvl.orders.Front().Value.(*resting)

		deal, err := core.NewMatcher(maker.buy, o).Matching()
		if err != nil {
			e.log.Error("match rejected against resting bid", zap.Error(err))
			break
		}
		deals = append(deals, e.record(book, id, maker.id, deal))

		if o.Status() != core.StatusEmpty {
			if err := o.ReserveRemaining(); err != nil {
				e.log.Error("re-reserve of taker remainder failed",
					zap.String("order", id), zap.Error(err))
				funded = false
				break
			}
		}
		if maker.buy.Status() == core.StatusEmpty {
			book.popFront(SideBuy, lvl)
			continue
		}
		if err := maker.buy.ReserveRemaining(); err != nil {
			e.log.Error("re-reserve failed, evicting maker",
				zap.String("order", maker.id), zap.Error(err))
			book.popFront(SideBuy, lvl)
		}
	}

	res := &PlaceResult{OrderID: id, Deals: deals, Remaining: o.Remaining(), Status: o.Status()}
	if o.Status() == core.StatusEmpty || !funded {
		return res
	}
	book.AddSell(id, o)
	res.Resting = true
	return res
}

func (e *Engine) record(book *Book, takerID, makerID string, deal core.Deal) DealRecord {
	return DealRecord{
		ID:           uuid.NewString(),
		Market:       book.Pair().Symbol(),
		TakerOrderID: takerID,
		MakerOrderID: makerID,
		Type:         deal.Type(),
		Price:        deal.Price(),
		Quantity:     deal.Quantity(),
		ExecutedAt:   time.Now().UTC(),
	}
}

func (e *Engine) handleCancel(id string) bool {
	for _, book := range e.books {
		if book.Cancel(id) {
			e.log.Info("order canceled", zap.String("order", id))
			return true
		}
	}
	return false
}

// OpenAccount, Place and Cancel are the thread-safe entry points; they
// hand the request to the engine goroutine and wait for its reply.

func (e *Engine) OpenAccount(ctx context.Context, req AccountRequest) error {
	resp, err := e.send(ctx, Command{Type: CmdOpenAccount, Account: &req})
	if err != nil {
		return err
	}
	return resp.(accountReply).Err
}

func (e *Engine) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	resp, err := e.send(ctx, Command{Type: CmdPlace, Place: &req})
	if err != nil {
		return nil, err
	}
	reply := resp.(placeReply)
	return reply.Result, reply.Err
}

func (e *Engine) Cancel(ctx context.Context, id string) (bool, error) {
	resp, err := e.send(ctx, Command{Type: CmdCancel, ID: id})
	if err != nil {
		return false, err
	}
	reply := resp.(cancelReply)
	return reply.OK, reply.Err
}

func (e *Engine) send(ctx context.Context, cmd Command) (any, error) {
	cmd.Resp = make(chan any, 1)
	select {
	case e.cmds <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrEngineStopped
	}
	select {
	case resp := <-cmd.Resp:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrEngineStopped
	}
}
