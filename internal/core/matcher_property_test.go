package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// drawAmount draws a positive decimal with two fractional digits.
func drawAmount(t *rapid.T, label string, lo, hi int64) decimal.Decimal {
	return decimal.New(rapid.Int64Range(lo, hi).Draw(t, label), -2)
}

func totalPrimary(b *BuyerBalance, s *SellerBalance) decimal.Decimal {
	return b.Primary().Add(b.ReservedPrimary()).
		Add(s.Primary()).Add(s.ReservedPrimary())
}

func totalSecondary(b *BuyerBalance, s *SellerBalance) decimal.Decimal {
	return b.Secondary().Add(b.ReservedSecondary()).
		Add(s.Secondary()).Add(s.ReservedSecondary())
}

func TestProperty_MatchConservesValue(t *testing.T) {
	pair, _ := NewPair(NewAsset("BTC", "Bitcoin"), NewAsset("ETH", "Ether"))

	rapid.Check(t, func(t *rapid.T) {
		buyPrice := drawAmount(t, "buyPrice", 1, 100000)
		sellPrice := drawAmount(t, "sellPrice", 1, 100000)
		buyQty := drawAmount(t, "buyQty", 1, 10000)
		sellQty := drawAmount(t, "sellQty", 1, 10000)
		buySeq := rapid.Uint64Range(1, 1000).Draw(t, "buySeq")
		sellSeq := rapid.Uint64Range(1, 1000).Draw(t, "sellSeq")
		if buySeq == sellSeq {
			sellSeq++
		}

		buyerBal, err := NewBuyerBalance(pair, buyQty.Mul(buyPrice), decimal.Zero)
		if err != nil {
			t.Fatalf("buyer balance: %v", err)
		}
		sellerBal, err := NewSellerBalance(pair, decimal.Zero, sellQty)
		if err != nil {
			t.Fatalf("seller balance: %v", err)
		}

		buy, err := NewBuyOrder(pair, buyQty, buyPrice, buyerBal, buySeq)
		if err != nil {
			t.Fatalf("buy order: %v", err)
		}
		sell, err := NewSellOrder(pair, sellQty, sellPrice, sellerBal, sellSeq)
		if err != nil {
			t.Fatalf("sell order: %v", err)
		}

		primaryBefore := totalPrimary(buyerBal, sellerBal)
		secondaryBefore := totalSecondary(buyerBal, sellerBal)

		deal, err := NewMatcher(buy, sell).Matching()

		shouldMatch := !buyPrice.LessThan(sellPrice)
		if shouldMatch && err != nil {
			t.Fatalf("expected match with buy=%s >= sell=%s: %v", buyPrice, sellPrice, err)
		}
		if !shouldMatch {
			if err == nil {
				t.Fatalf("expected no match with buy=%s < sell=%s", buyPrice, sellPrice)
			}
			// A rejected match mutates nothing.
			if !totalPrimary(buyerBal, sellerBal).Equal(primaryBefore) ||
				!totalSecondary(buyerBal, sellerBal).Equal(secondaryBefore) {
				t.Fatalf("rejected match moved funds")
			}
			return
		}

		// Conservation: visible + reserved totals are unchanged by a deal.
		if !totalPrimary(buyerBal, sellerBal).Equal(primaryBefore) {
			t.Fatalf("primary not conserved: %s -> %s",
				primaryBefore, totalPrimary(buyerBal, sellerBal))
		}
		if !totalSecondary(buyerBal, sellerBal).Equal(secondaryBefore) {
			t.Fatalf("secondary not conserved: %s -> %s",
				secondaryBefore, totalSecondary(buyerBal, sellerBal))
		}

		// Non-negativity.
		for _, v := range []decimal.Decimal{
			buyerBal.Primary(), buyerBal.Secondary(),
			buyerBal.ReservedPrimary(), buyerBal.ReservedSecondary(),
			sellerBal.Primary(), sellerBal.Secondary(),
			sellerBal.ReservedPrimary(), sellerBal.ReservedSecondary(),
		} {
			if v.IsNegative() {
				t.Fatalf("negative balance field: %s", v)
			}
		}

		// Price-time priority: the earlier order's limit is the deal
		// price, and both limits bound it.
		makerPrice := buyPrice
		if sellSeq < buySeq {
			makerPrice = sellPrice
		}
		if !deal.Price().Equal(makerPrice) {
			t.Fatalf("deal price %s != maker price %s", deal.Price(), makerPrice)
		}
		if deal.Price().GreaterThan(buyPrice) || deal.Price().LessThan(sellPrice) {
			t.Fatalf("deal price %s outside [%s, %s]", deal.Price(), sellPrice, buyPrice)
		}

		// Quantity bound.
		want := decimal.Min(buyQty, sellQty)
		if !deal.Quantity().Equal(want) {
			t.Fatalf("deal quantity %s != min(%s, %s)", deal.Quantity(), buyQty, sellQty)
		}
		if !buy.Remaining().Equal(buyQty.Sub(want)) || !sell.Remaining().Equal(sellQty.Sub(want)) {
			t.Fatalf("remaining quantities off: buy=%s sell=%s", buy.Remaining(), sell.Remaining())
		}
	})
}

func TestProperty_StatusMonotoneAcrossFills(t *testing.T) {
	pair, _ := NewPair(NewAsset("BTC", "Bitcoin"), NewAsset("ETH", "Ether"))

	rapid.Check(t, func(t *rapid.T) {
		price := drawAmount(t, "price", 1, 10000)
		buyQty := drawAmount(t, "buyQty", 1, 5000)

		buyerBal, err := NewBuyerBalance(pair, buyQty.Mul(price), decimal.Zero)
		if err != nil {
			t.Fatalf("buyer balance: %v", err)
		}
		buy, err := NewBuyOrder(pair, buyQty, price, buyerBal, 1)
		if err != nil {
			t.Fatalf("buy order: %v", err)
		}

		seen := buy.Status()
		seq := uint64(2)
		fills := rapid.IntRange(1, 5).Draw(t, "fills")

		for i := 0; i < fills && buy.Status() != StatusEmpty; i++ {
			sellQty := drawAmount(t, "sellQty", 1, 5000)
			sellerBal, err := NewSellerBalance(pair, decimal.Zero, sellQty)
			if err != nil {
				t.Fatalf("seller balance: %v", err)
			}
			sell, err := NewSellOrder(pair, sellQty, price, sellerBal, seq)
			if err != nil {
				t.Fatalf("sell order: %v", err)
			}
			seq++

			if _, err := NewMatcher(buy, sell).Matching(); err != nil {
				t.Fatalf("match: %v", err)
			}
			if err := buy.ReserveRemaining(); err != nil {
				t.Fatalf("re-reserve: %v", err)
			}

			next := buy.Status()
			switch seen {
			case StatusActive:
				if next == StatusActive {
					t.Fatalf("fill left order ACTIVE")
				}
			case StatusPartial:
				if next == StatusActive {
					t.Fatalf("status moved backward: PARTIAL -> ACTIVE")
				}
			case StatusEmpty:
				t.Fatalf("matched an EMPTY order")
			}
			seen = next
		}
	})
}
