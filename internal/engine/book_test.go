package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hydraex/exchange-core/internal/core"
)

func testPair(t *testing.T) core.Pair {
	t.Helper()
	pair, err := core.NewPair(core.NewAsset("BTC", "Bitcoin"), core.NewAsset("ETH", "Ether"))
	if err != nil {
		t.Fatal(err)
	}
	return pair
}

func restingBuy(t *testing.T, pair core.Pair, qty, price string, seq uint64) (*core.BuyOrder, *core.BuyerBalance) {
	t.Helper()
	q := decimal.RequireFromString(qty)
	p := decimal.RequireFromString(price)
	bal, err := core.NewBuyerBalance(pair, q.Mul(p), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	o, err := core.NewBuyOrder(pair, q, p, bal, seq)
	if err != nil {
		t.Fatal(err)
	}
	return o, bal
}

func restingSell(t *testing.T, pair core.Pair, qty, price string, seq uint64) (*core.SellOrder, *core.SellerBalance) {
	t.Helper()
	q := decimal.RequireFromString(qty)
	p := decimal.RequireFromString(price)
	bal, err := core.NewSellerBalance(pair, decimal.Zero, q)
	if err != nil {
		t.Fatal(err)
	}
	o, err := core.NewSellOrder(pair, q, p, bal, seq)
	if err != nil {
		t.Fatal(err)
	}
	return o, bal
}

func TestBookBestPrices(t *testing.T) {
	pair := testPair(t)
	book := NewBook(pair)

	for i, price := range []string{"102", "100", "101"} {
		o, _ := restingSell(t, pair, "1", price, uint64(i+1))
		book.AddSell("ask-"+price, o)
	}
	for i, price := range []string{"97", "99", "98"} {
		o, _ := restingBuy(t, pair, "1", price, uint64(i+4))
		book.AddBuy("bid-"+price, o)
	}

	ask, ok := book.BestAskPrice()
	if !ok || !ask.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("best ask = %s, want 100", ask)
	}
	bid, ok := book.BestBidPrice()
	if !ok || !bid.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("best bid = %s, want 99", bid)
	}
}

func TestBookCancelReleasesEscrow(t *testing.T) {
	pair := testPair(t)
	book := NewBook(pair)

	o, bal := restingBuy(t, pair, "10", "5", 1)
	book.AddBuy("o1", o)

	if bal.ReservedPrimary().IsZero() {
		t.Fatalf("expected escrow after order creation")
	}
	if !book.Cancel("o1") {
		t.Fatalf("cancel failed")
	}
	if book.Contains("o1") {
		t.Fatalf("order still resting after cancel")
	}
	if !bal.ReservedPrimary().IsZero() {
		t.Fatalf("escrow not released: %s", bal.ReservedPrimary())
	}
	if !bal.Primary().Equal(decimal.RequireFromString("50")) {
		t.Fatalf("visible balance = %s, want 50", bal.Primary())
	}
	if _, ok := book.BestBidPrice(); ok {
		t.Fatalf("expected empty bid side")
	}
}

func TestBookCancelUnknownOrder(t *testing.T) {
	book := NewBook(testPair(t))
	if book.Cancel("missing") {
		t.Fatalf("cancel of unknown order succeeded")
	}
}

func TestBookFIFOWithinLevel(t *testing.T) {
	pair := testPair(t)
	book := NewBook(pair)

	first, _ := restingSell(t, pair, "1", "100", 1)
	second, _ := restingSell(t, pair, "1", "100", 2)
	book.AddSell("first", first)
	book.AddSell("second", second)

	lvl := book.bestAsk()
	front := lvl.orders.Front().Value.(*resting)
	if front.id != "first" {
		t.Fatalf("front of level = %s, want first", front.id)
	}

	book.popFront(SideSell, lvl)
	lvl = book.bestAsk()
	front = lvl.orders.Front().Value.(*resting)
	if front.id != "second" {
		t.Fatalf("front of level = %s, want second", front.id)
	}
}
