package core

import "errors"

// Asset identifies a single currency or token. Two assets are the same
// asset iff their symbols match; Name is display-only.
type Asset struct {
	Symbol string
	Name   string
}

func NewAsset(symbol, name string) Asset {
	return Asset{Symbol: symbol, Name: name}
}

func (a Asset) Equal(b Asset) bool {
	return a.Symbol == b.Symbol
}

// Pair is one market: Primary is the quote/settlement asset, Secondary
// the traded asset. Orders and balances only interact when their pairs
// are equal.
type Pair struct {
	Primary   Asset
	Secondary Asset
}

var errSameAsset = errors.New("pair requires two distinct assets")

func NewPair(primary, secondary Asset) (Pair, error) {
	if primary.Equal(secondary) {
		return Pair{}, errSameAsset
	}
	return Pair{Primary: primary, Secondary: secondary}, nil
}

func (p Pair) Equal(other Pair) bool {
	return p.Primary.Equal(other.Primary) && p.Secondary.Equal(other.Secondary)
}

// Symbol renders the market identifier, e.g. "BTC-ETH".
func (p Pair) Symbol() string {
	return p.Primary.Symbol + "-" + p.Secondary.Symbol
}
