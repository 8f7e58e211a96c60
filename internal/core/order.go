package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Status is an order's lifecycle state. Transitions only move forward:
// Active -> Partial -> Empty, or Active -> Empty on a full first fill.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusPartial Status = "PARTIAL"
	StatusEmpty   Status = "EMPTY"
)

var (
	errNonPositiveQuantity = errors.New("order quantity must be positive")
	errNonPositivePrice    = errors.New("order price must be positive")
)

// order is the state shared by both sides. remaining and status are
// mutated only through applyFill, inside Matching.
type order struct {
	pair      Pair
	quantity  decimal.Decimal
	price     decimal.Decimal
	sequence  uint64
	remaining decimal.Decimal
	status    Status
}

func newOrder(pair Pair, quantity, price decimal.Decimal, sequence uint64) (order, error) {
	if !quantity.IsPositive() {
		return order{}, errNonPositiveQuantity
	}
	if !price.IsPositive() {
		return order{}, errNonPositivePrice
	}
	return order{
		pair:      pair,
		quantity:  quantity,
		price:     price,
		sequence:  sequence,
		remaining: quantity,
		status:    StatusActive,
	}, nil
}

func (o *order) Pair() Pair                 { return o.pair }
func (o *order) Quantity() decimal.Decimal  { return o.quantity }
func (o *order) Price() decimal.Decimal     { return o.price }
func (o *order) Sequence() uint64           { return o.sequence }
func (o *order) Remaining() decimal.Decimal { return o.remaining }
func (o *order) Status() Status             { return o.status }

func (o *order) applyFill(executed decimal.Decimal) {
	o.remaining = o.remaining.Sub(executed)
	if o.remaining.IsZero() {
		o.status = StatusEmpty
	} else {
		o.status = StatusPartial
	}
}

// BuyOrder is an intent to buy Remaining() units of the pair's secondary
// asset at up to Price() units of primary each. Construction escrows the
// full notional from the buyer's balance.
type BuyOrder struct {
	order
	balance *BuyerBalance
}

func NewBuyOrder(pair Pair, quantity, price decimal.Decimal, balance *BuyerBalance, sequence uint64) (*BuyOrder, error) {
	o, err := newOrder(pair, quantity, price, sequence)
	if err != nil {
		return nil, err
	}
	if err := balance.reserve(quantity.Mul(price)); err != nil {
		return nil, err
	}
	return &BuyOrder{order: o, balance: balance}, nil
}

func (o *BuyOrder) Balance() *BuyerBalance { return o.balance }

// ReserveRemaining re-escrows the notional for the unfilled remainder.
// Matching releases the whole unconsumed reservation after every fill,
// so the book must call this before re-queuing a PARTIAL order.
func (o *BuyOrder) ReserveRemaining() error {
	if o.status == StatusEmpty {
		return nil
	}
	return o.balance.reserve(o.remaining.Mul(o.price))
}

// ReleaseRemaining returns the escrow for the unfilled remainder to the
// visible balance; used when the surrounding book cancels the order.
func (o *BuyOrder) ReleaseRemaining() {
	if o.status == StatusEmpty {
		return
	}
	o.balance.releaseReservedPrimary(o.remaining.Mul(o.price))
}

// SellOrder is an intent to sell Remaining() units of the pair's
// secondary asset at no less than Price() each. Construction escrows the
// quantity being sold from the seller's balance.
type SellOrder struct {
	order
	balance *SellerBalance
}

func NewSellOrder(pair Pair, quantity, price decimal.Decimal, balance *SellerBalance, sequence uint64) (*SellOrder, error) {
	o, err := newOrder(pair, quantity, price, sequence)
	if err != nil {
		return nil, err
	}
	if err := balance.reserve(quantity); err != nil {
		return nil, err
	}
	return &SellOrder{order: o, balance: balance}, nil
}

func (o *SellOrder) Balance() *SellerBalance { return o.balance }

func (o *SellOrder) ReserveRemaining() error {
	if o.status == StatusEmpty {
		return nil
	}
	return o.balance.reserve(o.remaining)
}

func (o *SellOrder) ReleaseRemaining() {
	if o.status == StatusEmpty {
		return
	}
	o.balance.releaseReservedSecondary(o.remaining)
}
