package engine

import "github.com/hydraex/exchange-core/internal/core"

// Registry is the identity lookup for the markets this engine trades.
type Registry struct {
	pairs map[string]core.Pair
}

func NewRegistry(pairs ...core.Pair) *Registry {
	r := &Registry{pairs: make(map[string]core.Pair, len(pairs))}
	for _, p := range pairs {
		r.pairs[p.Symbol()] = p
	}
	return r
}

func (r *Registry) Lookup(symbol string) (core.Pair, bool) {
	p, ok := r.pairs[symbol]
	return p, ok
}

func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.pairs))
	for s := range r.pairs {
		out = append(out, s)
	}
	return out
}
