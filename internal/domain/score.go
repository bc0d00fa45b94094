package domain

// ScoreComponents holds the named sub-scores summed into the total.
type ScoreComponents struct {
	SocialBuzz     float64 `json:"social_buzz"`
	Security       float64 `json:"security"`
	Liquidity      float64 `json:"liquidity"`
	SocialPresence float64 `json:"social_presence"`
	Timing         float64 `json:"timing"`
}

// Sum adds all components.
func (c ScoreComponents) Sum() float64 {
	return c.SocialBuzz + c.Security + c.Liquidity + c.SocialPresence + c.Timing
}

// ScoreBreakdown is the scorer output. Vetoed tokens carry zero everywhere.
type ScoreBreakdown struct {
	Total      int             `json:"total"`
	Components ScoreComponents `json:"components"`
	Vetoed     bool            `json:"vetoed"`
	Warnings   []string        `json:"warnings"`
	Strengths  []string        `json:"strengths"`
}
