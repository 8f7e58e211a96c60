package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hydraex/exchange-core/internal/core"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type CommandType int

const (
	CmdOpenAccount CommandType = iota
	CmdPlace
	CmdCancel
)

type Command struct {
	Type    CommandType
	Account *AccountRequest // CmdOpenAccount
	Place   *PlaceRequest   // CmdPlace
	ID      string          // CmdCancel
	Resp    chan any        // engine sends the result back here
}

// AccountRequest opens a role-restricted balance on one market.
// Role BUY opens a buyer balance, SELL a seller balance.
type AccountRequest struct {
	ID        string
	Market    string
	Role      Side
	Primary   decimal.Decimal
	Secondary decimal.Decimal
}

type PlaceRequest struct {
	ID        string
	AccountID string
	Market    string
	Side      Side
	Price     decimal.Decimal
	Quantity  decimal.Decimal
}

// DealRecord is the engine's report of one execution: the core's deal
// fields plus the identities the book knows about.
type DealRecord struct {
	ID           string
	Market       string
	TakerOrderID string
	MakerOrderID string
	Type         core.TakerSide
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	ExecutedAt   time.Time
}

// PlaceResult reports what happened to a placed order: zero or more
// deals plus the order's post-match state.
type PlaceResult struct {
	OrderID   string
	Deals     []DealRecord
	Remaining decimal.Decimal
	Status    core.Status
	Resting   bool
}

type placeReply struct {
	Result *PlaceResult
	Err    error
}

type cancelReply struct {
	OK  bool
	Err error
}

type accountReply struct {
	Err error
}
