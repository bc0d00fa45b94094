package domain

// SocialPost is one normalized post from a social feed.
type SocialPost struct {
	ID       string
	Author   string
	Text     string
	Likes    int
	Reshares int
	PostedAt int64 // Unix ms
}

// Engagement returns likes plus reshares.
func (p SocialPost) Engagement() int {
	return p.Likes + p.Reshares
}

// MentionKind tells whether a cluster is keyed by ticker or address.
type MentionKind string

const (
	MentionSymbol  MentionKind = "symbol"
	MentionAddress MentionKind = "address"
)

// MentionCluster accumulates posts mentioning one token identifier.
type MentionCluster struct {
	Identifier      string // upper-case ticker without '$', or base58 address
	Kind            MentionKind
	Posts           []SocialPost
	TotalEngagement int
	AvgEngagement   float64
	Authors         []string // distinct, first-seen order
}

// UniqueAuthors returns the distinct author count.
func (c *MentionCluster) UniqueAuthors() int {
	return len(c.Authors)
}

// BuzzSignal is the social-buzz input to the scorer.
type BuzzSignal struct {
	Mentions         int
	UniqueAuthors    int
	AvgEngagement    float64
	MeanAuthorWeight float64
	Coordinated      bool
	AlertWorthy      bool
	Score            float64 // social-buzz sub-score, already discounted
}
