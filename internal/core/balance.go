package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ledger holds one participant's funds in a single pair. Amounts are
// split between the visible (available) balance and the escrow reserved
// for open orders; both sides of the split stay >= 0 at all times.
//
// All mutation goes through the methods below, which are invoked only
// by order construction and by the Matcher's settlement step.
type ledger struct {
	pair              Pair
	primary           decimal.Decimal
	secondary         decimal.Decimal
	reservedPrimary   decimal.Decimal
	reservedSecondary decimal.Decimal
}

var errNegativeAmount = errors.New("balance amounts must not be negative")

func newLedger(pair Pair, primary, secondary decimal.Decimal) (ledger, error) {
	if primary.IsNegative() || secondary.IsNegative() {
		return ledger{}, errNegativeAmount
	}
	return ledger{pair: pair, primary: primary, secondary: secondary}, nil
}

// Primary returns the visible (unreserved) primary-asset balance.
func (l *ledger) Primary() decimal.Decimal { return l.primary }

// Secondary returns the visible (unreserved) secondary-asset balance.
func (l *ledger) Secondary() decimal.Decimal { return l.secondary }

// ReservedPrimary returns the primary amount held in escrow for open orders.
func (l *ledger) ReservedPrimary() decimal.Decimal { return l.reservedPrimary }

// ReservedSecondary returns the secondary amount held in escrow for open orders.
func (l *ledger) ReservedSecondary() decimal.Decimal { return l.reservedSecondary }

func (l *ledger) Pair() Pair { return l.pair }

func (l *ledger) reservePrimary(amount decimal.Decimal) error {
	if l.primary.LessThan(amount) {
		return &BalanceError{Asset: l.pair.Primary, Need: amount, Have: l.primary}
	}
	l.primary = l.primary.Sub(amount)
	l.reservedPrimary = l.reservedPrimary.Add(amount)
	return nil
}

func (l *ledger) reserveSecondary(amount decimal.Decimal) error {
	if l.secondary.LessThan(amount) {
		return &BalanceError{Asset: l.pair.Secondary, Need: amount, Have: l.secondary}
	}
	l.secondary = l.secondary.Sub(amount)
	l.reservedSecondary = l.reservedSecondary.Add(amount)
	return nil
}

func (l *ledger) creditPrimary(amount decimal.Decimal) {
	l.primary = l.primary.Add(amount)
}

func (l *ledger) creditSecondary(amount decimal.Decimal) {
	l.secondary = l.secondary.Add(amount)
}

// consumeReservedPrimary pays amount out of escrow to the counterparty.
// Reservation guarantees sufficiency; an underflow here is a bug, not a
// domain condition.
func (l *ledger) consumeReservedPrimary(amount decimal.Decimal) {
	if l.reservedPrimary.LessThan(amount) {
		panic(fmt.Sprintf("core: reserved primary underflow: consume %s of %s",
			amount, l.reservedPrimary))
	}
	l.reservedPrimary = l.reservedPrimary.Sub(amount)
}

func (l *ledger) consumeReservedSecondary(amount decimal.Decimal) {
	if l.reservedSecondary.LessThan(amount) {
		panic(fmt.Sprintf("core: reserved secondary underflow: consume %s of %s",
			amount, l.reservedSecondary))
	}
	l.reservedSecondary = l.reservedSecondary.Sub(amount)
}

// releaseReservedPrimary moves amount back from escrow to the visible balance.
func (l *ledger) releaseReservedPrimary(amount decimal.Decimal) {
	if l.reservedPrimary.LessThan(amount) {
		panic(fmt.Sprintf("core: reserved primary underflow: release %s of %s",
			amount, l.reservedPrimary))
	}
	l.reservedPrimary = l.reservedPrimary.Sub(amount)
	l.primary = l.primary.Add(amount)
}

func (l *ledger) releaseReservedSecondary(amount decimal.Decimal) {
	if l.reservedSecondary.LessThan(amount) {
		panic(fmt.Sprintf("core: reserved secondary underflow: release %s of %s",
			amount, l.reservedSecondary))
	}
	l.reservedSecondary = l.reservedSecondary.Sub(amount)
	l.secondary = l.secondary.Add(amount)
}

// BuyerBalance is the buy-side capability over a ledger: the only
// reservation it can perform is primary-asset escrow for a buy order's
// notional (quantity x price).
type BuyerBalance struct {
	ledger
}

func NewBuyerBalance(pair Pair, primary, secondary decimal.Decimal) (*BuyerBalance, error) {
	l, err := newLedger(pair, primary, secondary)
	if err != nil {
		return nil, err
	}
	return &BuyerBalance{ledger: l}, nil
}

func (b *BuyerBalance) reserve(notional decimal.Decimal) error {
	return b.reservePrimary(notional)
}

// SellerBalance is the sell-side capability over a ledger: it reserves
// the secondary asset being sold, never the settlement asset.
type SellerBalance struct {
	ledger
}

func NewSellerBalance(pair Pair, primary, secondary decimal.Decimal) (*SellerBalance, error) {
	l, err := newLedger(pair, primary, secondary)
	if err != nil {
		return nil, err
	}
	return &SellerBalance{ledger: l}, nil
}

func (s *SellerBalance) reserve(quantity decimal.Decimal) error {
	return s.reserveSecondary(quantity)
}
