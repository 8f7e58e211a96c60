package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Match precondition failures, wrapped in *DealError.
var (
	ErrPairMismatch     = errors.New("orders reference different pairs")
	ErrPriceGap         = errors.New("buy price is below sell price")
	ErrNothingRemaining = errors.New("order has no remaining quantity")
)

// BalanceError reports a reservation that would drive a balance field
// negative. It is raised at order construction only; the order is not
// created and the balance is untouched.
type BalanceError struct {
	Asset Asset
	Need  decimal.Decimal
	Have  decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s %s, have %s",
		e.Need, e.Asset.Symbol, e.Have)
}

// DealError reports an invalid match attempt. Nothing was mutated.
// Unwrap exposes the precondition that failed (ErrPairMismatch,
// ErrPriceGap or ErrNothingRemaining).
type DealError struct {
	BuySequence  uint64
	SellSequence uint64
	Err          error
}

func (e *DealError) Error() string {
	return fmt.Sprintf("cannot match buy #%d with sell #%d: %v",
		e.BuySequence, e.SellSequence, e.Err)
}

func (e *DealError) Unwrap() error {
	return e.Err
}
