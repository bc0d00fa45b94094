package social

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"meme-coin-sniper/internal/domain"
)

// Classifier judges whether a mention cluster looks coordinated rather than
// organic.
type Classifier interface {
	Coordinated(c *domain.MentionCluster) bool
}

// HeuristicClassifier flags clusters dominated by near-identical texts or by
// a single short burst of posts.
type HeuristicClassifier struct {
	// MinPosts below which no judgement is made.
	MinPosts int
	// DuplicateShare of posts sharing one normalized text.
	DuplicateShare float64
	// BurstWindow and BurstShare: share of posts inside one window.
	BurstWindow time.Duration
	BurstShare  float64
}

// DefaultClassifier returns the default thresholds.
func DefaultClassifier() HeuristicClassifier {
	return HeuristicClassifier{
		MinPosts:       4,
		DuplicateShare: 0.5,
		BurstWindow:    2 * time.Minute,
		BurstShare:     0.8,
	}
}

var _ Classifier = HeuristicClassifier{}

// Coordinated implements Classifier.
func (h HeuristicClassifier) Coordinated(c *domain.MentionCluster) bool {
	n := len(c.Posts)
	if n == 0 || n < h.MinPosts {
		return false
	}

	texts := make(map[string]int)
	maxDup := 0
	for _, p := range c.Posts {
		key := normalizeText(p.Text)
		texts[key]++
		if texts[key] > maxDup {
			maxDup = texts[key]
		}
	}
	if h.DuplicateShare > 0 && float64(maxDup)/float64(n) >= h.DuplicateShare {
		return true
	}

	if h.BurstWindow <= 0 || h.BurstShare <= 0 {
		return false
	}
	times := make([]int64, 0, n)
	for _, p := range c.Posts {
		times = append(times, p.PostedAt)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	window := h.BurstWindow.Milliseconds()
	best, lo := 0, 0
	for hi := range times {
		for times[hi]-times[lo] > window {
			lo++
		}
		if hi-lo+1 > best {
			best = hi - lo + 1
		}
	}
	return float64(best)/float64(n) >= h.BurstShare
}

// normalizeText lower-cases, drops links and keeps letters and digits only.
func normalizeText(s string) string {
	var b strings.Builder
	for _, field := range strings.Fields(strings.ToLower(s)) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") || strings.HasPrefix(field, "@") {
			continue
		}
		for _, r := range field {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
