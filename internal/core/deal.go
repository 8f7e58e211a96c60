package core

import "github.com/shopspring/decimal"

// TakerSide records which order arrived later and therefore crossed the
// resting one.
type TakerSide string

const (
	BuyerTaker  TakerSide = "BUYER_TAKER"
	SellerTaker TakerSide = "SELLER_TAKER"
)

// Deal is the immutable record of one execution.
type Deal struct {
	takerSide TakerSide
	price     decimal.Decimal
	quantity  decimal.Decimal
}

func (d Deal) Type() TakerSide           { return d.takerSide }
func (d Deal) Price() decimal.Decimal    { return d.price }
func (d Deal) Quantity() decimal.Decimal { return d.quantity }
