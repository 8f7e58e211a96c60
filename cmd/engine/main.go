package main

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/hydraex/exchange-core/internal/core"
)

func main() {
	pair, err := core.NewPair(
		core.NewAsset("BTC", "Bitcoin"),
		core.NewAsset("ETH", "Ether"),
	)
	if err != nil {
		log.Fatal(err)
	}

	buyerBal, err := core.NewBuyerBalance(pair,
		decimal.RequireFromString("1001"), decimal.RequireFromString("89"))
	if err != nil {
		log.Fatal(err)
	}
	sellerBal, err := core.NewSellerBalance(pair,
		decimal.RequireFromString("99"), decimal.RequireFromString("11"))
	if err != nil {
		log.Fatal(err)
	}

	// Maker: buy 100 ETH at 10 BTC each; rests first (sequence 1).
	buy, err := core.NewBuyOrder(pair,
		decimal.RequireFromString("100"), decimal.RequireFromString("10"), buyerBal, 1)
	if err != nil {
		log.Fatal(err)
	}

	// Taker: sell 10 ETH at 9; crosses the resting bid.
	sell, err := core.NewSellOrder(pair,
		decimal.RequireFromString("10"), decimal.RequireFromString("9"), sellerBal, 2)
	if err != nil {
		log.Fatal(err)
	}

	deal, err := core.NewMatcher(buy, sell).Matching()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("deal: %s %s @ %s\n", deal.Type(), deal.Quantity(), deal.Price())
	fmt.Printf("buy order: remaining=%s status=%s\n", buy.Remaining(), buy.Status())
	fmt.Printf("sell order: remaining=%s status=%s\n", sell.Remaining(), sell.Status())
	fmt.Printf("buyer balance: %s %s / %s %s\n",
		buyerBal.Primary(), pair.Primary.Symbol, buyerBal.Secondary(), pair.Secondary.Symbol)
	fmt.Printf("seller balance: %s %s / %s %s\n",
		sellerBal.Primary(), pair.Primary.Symbol, sellerBal.Secondary(), pair.Secondary.Symbol)
}
