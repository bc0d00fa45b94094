package social

import (
	"math"

	"meme-coin-sniper/internal/domain"
)

// Buzz score caps. Their sum is MaxBuzzScore.
const (
	MaxBuzzScore     = 25.0
	authorPoints     = 10.0
	weightPoints     = 8.0
	engagementPoints = 7.0

	// authorSaturation is the distinct-author count that earns full points.
	authorSaturation = 10
	// engagementSaturation is the average engagement that earns full points.
	engagementSaturation = 1000.0
)

// DefaultMinAuthors is the distinct-author threshold for alert-worthiness.
const DefaultMinAuthors = 3

// Analyzer converts mention clusters into buzz signals.
type Analyzer struct {
	Weights    *AuthorWeights
	Classifier Classifier
	MinAuthors int
}

// NewAnalyzer creates an Analyzer with the default classifier.
func NewAnalyzer(weights *AuthorWeights) *Analyzer {
	return &Analyzer{
		Weights:    weights,
		Classifier: DefaultClassifier(),
		MinAuthors: DefaultMinAuthors,
	}
}

// Buzz blends distinct authors, mean author weight and average engagement
// into a sub-score capped at MaxBuzzScore. Clusters below the author
// threshold score zero; coordinated clusters are halved.
func (a *Analyzer) Buzz(c *domain.MentionCluster) domain.BuzzSignal {
	minAuthors := a.MinAuthors
	if minAuthors <= 0 {
		minAuthors = DefaultMinAuthors
	}

	sig := domain.BuzzSignal{
		Mentions:      len(c.Posts),
		UniqueAuthors: c.UniqueAuthors(),
		AvgEngagement: c.AvgEngagement,
	}
	if sig.UniqueAuthors > 0 {
		total := 0.0
		for _, author := range c.Authors {
			total += a.Weights.Weight(author)
		}
		sig.MeanAuthorWeight = total / float64(sig.UniqueAuthors)
	}
	if a.Classifier != nil {
		sig.Coordinated = a.Classifier.Coordinated(c)
	}
	sig.AlertWorthy = sig.UniqueAuthors >= minAuthors
	if !sig.AlertWorthy {
		return sig
	}

	authors := math.Min(float64(sig.UniqueAuthors)/authorSaturation, 1) * authorPoints
	weight := math.Max(0, math.Min((sig.MeanAuthorWeight-WeightDefault)/(WeightTop-WeightDefault), 1)) * weightPoints
	engagement := math.Min(math.Log10(1+sig.AvgEngagement)/math.Log10(1+engagementSaturation), 1) * engagementPoints

	score := authors + weight + engagement
	if sig.Coordinated {
		score /= 2
	}
	sig.Score = math.Min(score, MaxBuzzScore)
	return sig
}
