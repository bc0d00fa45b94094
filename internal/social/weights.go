package social

import "strings"

// Author tier weights.
const (
	WeightTop     = 3.0
	WeightMid     = 2.0
	WeightLow     = 1.5
	WeightDefault = 1.0
)

// AuthorTiers lists curated author handles per tier.
type AuthorTiers struct {
	Top []string `yaml:"top"`
	Mid []string `yaml:"mid"`
	Low []string `yaml:"low"`
}

// AuthorWeights maps author handles to tier weights.
type AuthorWeights struct {
	weights map[string]float64
}

// NewAuthorWeights builds weights from tiers. A handle listed in several
// tiers keeps the highest weight.
func NewAuthorWeights(tiers AuthorTiers) *AuthorWeights {
	w := &AuthorWeights{weights: make(map[string]float64)}
	set := func(handles []string, weight float64) {
		for _, h := range handles {
			key := normalizeHandle(h)
			if key != "" && weight > w.weights[key] {
				w.weights[key] = weight
			}
		}
	}
	set(tiers.Low, WeightLow)
	set(tiers.Mid, WeightMid)
	set(tiers.Top, WeightTop)
	return w
}

// Weight returns the author's weight, WeightDefault when untracked.
func (w *AuthorWeights) Weight(author string) float64 {
	if w == nil {
		return WeightDefault
	}
	if v, ok := w.weights[normalizeHandle(author)]; ok {
		return v
	}
	return WeightDefault
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}
