package aggregator

import (
	"meme-coin-sniper/internal/domain"
)

// Merge deduplicates pairs by canonical key across batches taken in adapter
// order. The first observation of a key wins every field; later observations
// only fill fields the earlier ones left empty.
func Merge(batches ...[]domain.MarketPair) []domain.CanonicalToken {
	var out []domain.CanonicalToken
	index := make(map[string]int)

	for _, batch := range batches {
		for i := range batch {
			p := &batch[i]
			key := p.CanonicalKey()
			if key == "" {
				continue
			}
			if j, ok := index[key]; ok {
				enrich(&out[j], p)
				continue
			}
			index[key] = len(out)
			out = append(out, domain.CanonicalToken{
				Key:        key,
				MarketPair: *p,
				Sources:    []string{p.Source},
			})
		}
	}
	return out
}

// MergeSecondary appends tokens from secondary listing sources whose base
// address is not already present. Present tokens are left untouched.
func MergeSecondary(tokens []domain.CanonicalToken, batches ...[]domain.MarketPair) []domain.CanonicalToken {
	present := make(map[string]bool, len(tokens))
	for i := range tokens {
		present[tokens[i].Key] = true
		if tokens[i].BaseAddress != "" {
			present[tokens[i].BaseAddress] = true
		}
	}

	var extra [][]domain.MarketPair
	for _, batch := range batches {
		var keep []domain.MarketPair
		for _, p := range batch {
			if p.BaseAddress == "" || present[p.BaseAddress] {
				continue
			}
			keep = append(keep, p)
		}
		extra = append(extra, keep)
	}
	return append(tokens, Merge(extra...)...)
}

func enrich(dst *domain.CanonicalToken, p *domain.MarketPair) {
	addSource(dst, p.Source)

	m := &dst.MarketPair
	fillString(&m.Venue, p.Venue)
	fillString(&m.PairAddress, p.PairAddress)
	fillString(&m.BaseAddress, p.BaseAddress)
	fillString(&m.BaseName, p.BaseName)
	fillString(&m.BaseSymbol, p.BaseSymbol)
	fillString(&m.Socials.Website, p.Socials.Website)
	fillString(&m.Socials.Twitter, p.Socials.Twitter)
	fillString(&m.Socials.Telegram, p.Socials.Telegram)

	fillFloat(&m.PriceUSD, p.PriceUSD)
	fillFloat(&m.LiquidityUSD, p.LiquidityUSD)
	fillWindows(&m.Volume, p.Volume)
	fillWindows(&m.PriceChange, p.PriceChange)
	fillTxn(&m.Txns.H1, p.Txns.H1)
	fillTxn(&m.Txns.H6, p.Txns.H6)
	fillTxn(&m.Txns.H24, p.Txns.H24)

	if m.CreatedAt == nil && p.CreatedAt != nil {
		v := *p.CreatedAt
		m.CreatedAt = &v
	}
}

func addSource(dst *domain.CanonicalToken, source string) {
	for _, s := range dst.Sources {
		if s == source {
			return
		}
	}
	dst.Sources = append(dst.Sources, source)
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func fillFloat(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		x := *v
		*dst = &x
	}
}

func fillWindows(dst *domain.Windows, v domain.Windows) {
	fillFloat(&dst.H1, v.H1)
	fillFloat(&dst.H6, v.H6)
	fillFloat(&dst.H24, v.H24)
}

func fillTxn(dst **domain.TxnCount, v *domain.TxnCount) {
	if *dst == nil && v != nil {
		x := *v
		*dst = &x
	}
}
