package geckoterminal

import (
	"strings"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/sources"
)

// poolsResponse is the JSON:API document returned by pool endpoints.
type poolsResponse struct {
	Data     []pool     `json:"data"`
	Included []included `json:"included"`
}

type pool struct {
	ID            string         `json:"id"`
	Attributes    poolAttributes `json:"attributes"`
	Relationships struct {
		BaseToken relation `json:"base_token"`
		Dex       relation `json:"dex"`
	} `json:"relationships"`
}

type relation struct {
	Data *struct {
		ID string `json:"id"`
	} `json:"data"`
}

type poolAttributes struct {
	Address           string                `json:"address"`
	Name              string                `json:"name"`
	BaseTokenPriceUSD string                `json:"base_token_price_usd"`
	ReserveInUSD      string                `json:"reserve_in_usd"`
	PoolCreatedAt     string                `json:"pool_created_at"`
	VolumeUSD         stringWindows         `json:"volume_usd"`
	PriceChange       stringWindows         `json:"price_change_percentage"`
	Transactions      map[string]*txnCounts `json:"transactions"`
}

type stringWindows struct {
	H1  string `json:"h1"`
	H6  string `json:"h6"`
	H24 string `json:"h24"`
}

type txnCounts struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type included struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"attributes"`
}

type tokenInfo struct {
	address string
	name    string
	symbol  string
}

func (r *poolsResponse) tokenIndex() map[string]tokenInfo {
	idx := make(map[string]tokenInfo, len(r.Included))
	for _, inc := range r.Included {
		if inc.Type != "token" {
			continue
		}
		idx[inc.ID] = tokenInfo{address: inc.Attributes.Address, name: inc.Attributes.Name, symbol: inc.Attributes.Symbol}
	}
	return idx
}

// stripNetwork turns "solana_<addr>" relation ids into "<addr>".
func stripNetwork(id string) string {
	if i := strings.IndexByte(id, '_'); i >= 0 {
		return id[i+1:]
	}
	return id
}

func normalize(p *pool, tokens map[string]tokenInfo) (domain.MarketPair, bool) {
	if p.ID != "" && !strings.HasPrefix(p.ID, domain.ChainSolana+"_") {
		return domain.MarketPair{}, false
	}

	var base tokenInfo
	if rel := p.Relationships.BaseToken.Data; rel != nil {
		base = tokens[rel.ID]
		if base.address == "" {
			base.address = stripNetwork(rel.ID)
		}
	}
	if base.address == "" && p.Attributes.Address == "" {
		return domain.MarketPair{}, false
	}
	if base.symbol == "" {
		// Pool names read "SYMBOL / SOL".
		if i := strings.Index(p.Attributes.Name, " / "); i > 0 {
			base.symbol = strings.TrimSpace(p.Attributes.Name[:i])
		}
	}

	venue := ""
	if rel := p.Relationships.Dex.Data; rel != nil {
		venue = domain.NormalizeVenue(rel.ID)
	}

	a := &p.Attributes
	return domain.MarketPair{
		Source:       Name,
		Chain:        domain.ChainSolana,
		Venue:        venue,
		PairAddress:  a.Address,
		BaseAddress:  base.address,
		BaseName:     base.name,
		BaseSymbol:   base.symbol,
		PriceUSD:     sources.ParseFloat(a.BaseTokenPriceUSD),
		LiquidityUSD: sources.ParseFloat(a.ReserveInUSD),
		Volume: domain.Windows{
			H1:  sources.ParseFloat(a.VolumeUSD.H1),
			H6:  sources.ParseFloat(a.VolumeUSD.H6),
			H24: sources.ParseFloat(a.VolumeUSD.H24),
		},
		PriceChange: domain.Windows{
			H1:  sources.ParseFloat(a.PriceChange.H1),
			H6:  sources.ParseFloat(a.PriceChange.H6),
			H24: sources.ParseFloat(a.PriceChange.H24),
		},
		Txns: domain.TxnWindows{
			H1:  txnWindow(a.Transactions, "h1"),
			H6:  txnWindow(a.Transactions, "h6"),
			H24: txnWindow(a.Transactions, "h24"),
		},
		CreatedAt: sources.ParseTimeMs(a.PoolCreatedAt),
	}, true
}

func txnWindow(m map[string]*txnCounts, key string) *domain.TxnCount {
	t := m[key]
	if t == nil {
		return nil
	}
	return &domain.TxnCount{Buys: t.Buys, Sells: t.Sells}
}
