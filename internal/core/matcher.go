package core

import "github.com/shopspring/decimal"

// Matcher executes at most one deal between a single buy and a single
// sell order. It performs no I/O and no locking; the caller must ensure
// no other match touches either order or balance concurrently.
type Matcher struct {
	buy  *BuyOrder
	sell *SellOrder
}

func NewMatcher(buy *BuyOrder, sell *SellOrder) *Matcher {
	return &Matcher{buy: buy, sell: sell}
}

// Matching checks the match preconditions, settles both balances and
// fills both orders. Either everything happens or, on a DealError,
// nothing does.
func (m *Matcher) Matching() (Deal, error) {
	if err := m.precheck(); err != nil {
		return Deal{}, err
	}

	// The earlier order was resting first: it is the maker and its
	// limit fixes the execution price.
	price := m.buy.price
	side := SellerTaker
	if m.sell.sequence < m.buy.sequence {
		price = m.sell.price
		side = BuyerTaker
	}

	executed := decimal.Min(m.buy.remaining, m.sell.remaining)
	notional := executed.Mul(price)

	// Escrow held for each order at this point: the buy side holds
	// remaining x limit price of primary, the sell side holds remaining
	// of secondary. Settlement consumes the traded portion and returns
	// the rest to the visible balances; a still-open order must be
	// re-reserved by the caller (ReserveRemaining) before it rests again.
	buyEscrow := m.buy.remaining.Mul(m.buy.price)
	sellEscrow := m.sell.remaining

	buyer := m.buy.balance
	buyer.creditSecondary(executed)
	buyer.consumeReservedPrimary(notional)
	buyer.releaseReservedPrimary(buyEscrow.Sub(notional))

	seller := m.sell.balance
	seller.creditPrimary(notional)
	seller.consumeReservedSecondary(executed)
	seller.releaseReservedSecondary(sellEscrow.Sub(executed))

	m.buy.applyFill(executed)
	m.sell.applyFill(executed)

	return Deal{takerSide: side, price: price, quantity: executed}, nil
}

func (m *Matcher) precheck() error {
	fail := func(cause error) error {
		return &DealError{
			BuySequence:  m.buy.sequence,
			SellSequence: m.sell.sequence,
			Err:          cause,
		}
	}
	if !m.buy.pair.Equal(m.sell.pair) {
		return fail(ErrPairMismatch)
	}
	if !m.buy.remaining.IsPositive() || !m.sell.remaining.IsPositive() {
		return fail(ErrNothingRemaining)
	}
	if m.buy.price.LessThan(m.sell.price) {
		return fail(ErrPriceGap)
	}
	return nil
}
