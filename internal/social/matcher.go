// Package social turns social posts into per-token mention clusters and
// social-buzz signals.
package social

import (
	"regexp"
	"strings"

	"github.com/mr-tron/base58"
)

var (
	tickerPattern  = regexp.MustCompile(`\$[A-Za-z][A-Za-z0-9]{1,9}`)
	addressPattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)
)

// Mention is one token identifier found in a text.
type Mention struct {
	Identifier string
	Address    bool
}

// Match returns the distinct tickers and addresses in text, in order of
// first appearance. Tickers are upper-cased without '$'.
func Match(text string) []Mention {
	var out []Mention
	seen := make(map[string]bool)
	add := func(m Mention) {
		if !seen[m.Identifier] {
			seen[m.Identifier] = true
			out = append(out, m)
		}
	}

	type hit struct {
		start int
		m     Mention
	}
	var hits []hit

	for _, loc := range tickerPattern.FindAllStringIndex(text, -1) {
		if isWordByte(byteBefore(text, loc[0])) || isWordByte(byteAt(text, loc[1])) {
			continue
		}
		hits = append(hits, hit{loc[0], Mention{Identifier: strings.ToUpper(text[loc[0]+1 : loc[1]])}})
	}
	for _, loc := range addressPattern.FindAllStringIndex(text, -1) {
		if isWordByte(byteBefore(text, loc[0])) || isWordByte(byteAt(text, loc[1])) {
			continue
		}
		addr := text[loc[0]:loc[1]]
		if !IsAddress(addr) {
			continue
		}
		hits = append(hits, hit{loc[0], Mention{Identifier: addr, Address: true}})
	}

	// Merge the two scans by position.
	for len(hits) > 0 {
		best := 0
		for i := range hits {
			if hits[i].start < hits[best].start {
				best = i
			}
		}
		add(hits[best].m)
		hits = append(hits[:best], hits[best+1:]...)
	}
	return out
}

// IsAddress reports whether s is base58 that decodes to a 32-byte key.
func IsAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	b, err := base58.Decode(s)
	return err == nil && len(b) == 32
}

func byteBefore(s string, i int) byte {
	if i <= 0 {
		return 0
	}
	return s[i-1]
}

func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
