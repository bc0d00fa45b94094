package dexscreener

import (
	"strings"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/sources"
)

// tokenRef is an item of the token-profiles and token-boosts feeds.
type tokenRef struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

type searchResponse struct {
	Pairs []pairData `json:"pairs"`
}

type pairData struct {
	ChainID       string     `json:"chainId"`
	DexID         string     `json:"dexId"`
	PairAddress   string     `json:"pairAddress"`
	BaseToken     token      `json:"baseToken"`
	PriceUsd      string     `json:"priceUsd"`
	Txns          txns       `json:"txns"`
	Volume        windows    `json:"volume"`
	PriceChange   windows    `json:"priceChange"`
	Liquidity     *liquidity `json:"liquidity"`
	PairCreatedAt int64      `json:"pairCreatedAt"`
	Info          *pairInfo  `json:"info"`
}

type token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type liquidity struct {
	Usd *float64 `json:"usd"`
}

type windows struct {
	H1  *float64 `json:"h1"`
	H6  *float64 `json:"h6"`
	H24 *float64 `json:"h24"`
}

type txnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type txns struct {
	H1  *txnCount `json:"h1"`
	H6  *txnCount `json:"h6"`
	H24 *txnCount `json:"h24"`
}

type pairInfo struct {
	Websites []struct {
		URL string `json:"url"`
	} `json:"websites"`
	Socials []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"socials"`
}

// normalize converts one provider record. ok is false for records that are
// off-chain or carry no identity.
func normalize(r *pairData) (domain.MarketPair, bool) {
	if !strings.EqualFold(r.ChainID, domain.ChainSolana) {
		return domain.MarketPair{}, false
	}
	if r.BaseToken.Address == "" && r.PairAddress == "" {
		return domain.MarketPair{}, false
	}

	p := domain.MarketPair{
		Source:      Name,
		Chain:       domain.ChainSolana,
		Venue:       domain.NormalizeVenue(r.DexID),
		PairAddress: r.PairAddress,
		BaseAddress: r.BaseToken.Address,
		BaseName:    strings.TrimSpace(r.BaseToken.Name),
		BaseSymbol:  strings.TrimSpace(r.BaseToken.Symbol),
		PriceUSD:    sources.ParseFloat(r.PriceUsd),
		Volume:      domain.Windows{H1: r.Volume.H1, H6: r.Volume.H6, H24: r.Volume.H24},
		PriceChange: domain.Windows{H1: r.PriceChange.H1, H6: r.PriceChange.H6, H24: r.PriceChange.H24},
		Txns: domain.TxnWindows{
			H1:  convertTxn(r.Txns.H1),
			H6:  convertTxn(r.Txns.H6),
			H24: convertTxn(r.Txns.H24),
		},
	}
	if r.Liquidity != nil && r.Liquidity.Usd != nil {
		p.LiquidityUSD = domain.Float(*r.Liquidity.Usd)
	}
	if r.PairCreatedAt > 0 {
		p.CreatedAt = domain.Int64(r.PairCreatedAt)
	}
	if r.Info != nil {
		if len(r.Info.Websites) > 0 {
			p.Socials.Website = r.Info.Websites[0].URL
		}
		for _, s := range r.Info.Socials {
			switch strings.ToLower(s.Type) {
			case "twitter", "x":
				if p.Socials.Twitter == "" {
					p.Socials.Twitter = s.URL
				}
			case "telegram":
				if p.Socials.Telegram == "" {
					p.Socials.Telegram = s.URL
				}
			}
		}
	}
	return p, true
}

func convertTxn(t *txnCount) *domain.TxnCount {
	if t == nil {
		return nil
	}
	return &domain.TxnCount{Buys: t.Buys, Sells: t.Sells}
}
