package engine

import (
	"container/list"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hydraex/exchange-core/internal/core"
)

// resting wraps one side's core order so both sides can share the
// book's FIFO price levels.
type resting struct {
	id   string
	buy  *core.BuyOrder // exactly one of buy/sell is set
	sell *core.SellOrder
}

// release returns the order's escrow to its balance; used on cancel.
func (r *resting) release() {
	if r.buy != nil {
		r.buy.ReleaseRemaining()
	} else {
		r.sell.ReleaseRemaining()
	}
}

// priceLevel holds FIFO orders for one price.
type priceLevel struct {
	price  decimal.Decimal
	orders *list.List // of *resting, oldest first
}

type orderRef struct {
	side  Side
	price decimal.Decimal
	elem  *list.Element
}

// Book keeps the resting orders of one market in price/time priority.
// Prices are exact decimals; levels are keyed by the canonical string
// form since decimals are not comparable map keys.
type Book struct {
	pair core.Pair

	bids map[string]*priceLevel
	asks map[string]*priceLevel

	bidPrices []decimal.Decimal // sorted desc
	askPrices []decimal.Decimal // sorted asc

	ordersByID map[string]*orderRef
}

func NewBook(pair core.Pair) *Book {
	return &Book{
		pair:       pair,
		bids:       make(map[string]*priceLevel),
		asks:       make(map[string]*priceLevel),
		bidPrices:  make([]decimal.Decimal, 0),
		askPrices:  make([]decimal.Decimal, 0),
		ordersByID: make(map[string]*orderRef),
	}
}

func (b *Book) Pair() core.Pair { return b.pair }

func (b *Book) AddBuy(id string, o *core.BuyOrder) {
	b.add(id, SideBuy, o.Price(), &resting{id: id, buy: o})
}

func (b *Book) AddSell(id string, o *core.SellOrder) {
	b.add(id, SideSell, o.Price(), &resting{id: id, sell: o})
}

func (b *Book) add(id string, side Side, price decimal.Decimal, r *resting) {
	levels := b.asks
	if side == SideBuy {
		levels = b.bids
	}
	key := price.String()
	lvl, ok := levels[key]
	if !ok {
		lvl = &priceLevel{price: price, orders: list.New()}
		levels[key] = lvl
		b.insertPrice(side, price)
	}
	elem := lvl.orders.PushBack(r)
	b.ordersByID[id] = &orderRef{side: side, price: price, elem: elem}
}

func (b *Book) insertPrice(side Side, price decimal.Decimal) {
	if side == SideBuy {
		i := sort.Search(len(b.bidPrices), func(i int) bool {
			return b.bidPrices[i].LessThan(price)
		})
		b.bidPrices = append(b.bidPrices, decimal.Zero)
		copy(b.bidPrices[i+1:], b.bidPrices[i:])
		b.bidPrices[i] = price
		return
	}
	i := sort.Search(len(b.askPrices), func(i int) bool {
		return b.askPrices[i].GreaterThan(price)
	})
	b.askPrices = append(b.askPrices, decimal.Zero)
	copy(b.askPrices[i+1:], b.askPrices[i:])
	b.askPrices[i] = price
}

func (b *Book) bestBid() *priceLevel {
	if len(b.bidPrices) == 0 {
		return nil
	}
	return b.bids[b.bidPrices[0].String()]
}

func (b *Book) bestAsk() *priceLevel {
	if len(b.askPrices) == 0 {
		return nil
	}
	return b.asks[b.askPrices[0].String()]
}

// BestBidPrice reports the highest resting bid, if any.
func (b *Book) BestBidPrice() (decimal.Decimal, bool) {
	if len(b.bidPrices) == 0 {
		return decimal.Zero, false
	}
	return b.bidPrices[0], true
}

// BestAskPrice reports the lowest resting ask, if any.
func (b *Book) BestAskPrice() (decimal.Decimal, bool) {
	if len(b.askPrices) == 0 {
		return decimal.Zero, false
	}
	return b.askPrices[0], true
}

func (b *Book) removeBidLevel(price decimal.Decimal) {
	delete(b.bids, price.String())
	for i, p := range b.bidPrices {
		if p.Equal(price) {
			b.bidPrices = append(b.bidPrices[:i], b.bidPrices[i+1:]...)
			return
		}
	}
}

func (b *Book) removeAskLevel(price decimal.Decimal) {
	delete(b.asks, price.String())
	for i, p := range b.askPrices {
		if p.Equal(price) {
			b.askPrices = append(b.askPrices[:i], b.askPrices[i+1:]...)
			return
		}
	}
}

// popFront removes the oldest order at lvl, dropping the level when it
// empties. The order's escrow is the matcher's business, not the book's.
func (b *Book) popFront(side Side, lvl *priceLevel) {
	front := lvl.orders.Front()
	r := front.Value.(*resting)
	lvl.orders.Remove(front)
	delete(b.ordersByID, r.id)
	if lvl.orders.Len() == 0 {
		if side == SideBuy {
			b.removeBidLevel(lvl.price)
		} else {
			b.removeAskLevel(lvl.price)
		}
	}
}

// Cancel removes a resting order and returns its escrow to the owner's
// visible balance.
func (b *Book) Cancel(id string) bool {
	ref, ok := b.ordersByID[id]
	if !ok {
		return false
	}
	r := ref.elem.Value.(*resting)
	r.release()

	levels := b.asks
	if ref.side == SideBuy {
		levels = b.bids
	}
	lvl := levels[ref.price.String()]
	lvl.orders.Remove(ref.elem)
	delete(b.ordersByID, id)
	if lvl.orders.Len() == 0 {
		if ref.side == SideBuy {
			b.removeBidLevel(ref.price)
		} else {
			b.removeAskLevel(ref.price)
		}
	}
	return true
}

// Contains reports whether an order with the given id is resting.
func (b *Book) Contains(id string) bool {
	_, ok := b.ordersByID[id]
	return ok
}
