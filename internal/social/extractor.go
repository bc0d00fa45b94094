package social

import (
	"meme-coin-sniper/internal/domain"
)

// ExtractMentions groups posts by the token identifiers they mention. A post
// contributes once to each identifier it names.
func ExtractMentions(posts []domain.SocialPost) map[string]*domain.MentionCluster {
	clusters := make(map[string]*domain.MentionCluster)
	authors := make(map[string]map[string]bool)

	for _, post := range posts {
		for _, m := range Match(post.Text) {
			c, ok := clusters[m.Identifier]
			if !ok {
				kind := domain.MentionSymbol
				if m.Address {
					kind = domain.MentionAddress
				}
				c = &domain.MentionCluster{Identifier: m.Identifier, Kind: kind}
				clusters[m.Identifier] = c
				authors[m.Identifier] = make(map[string]bool)
			}
			c.Posts = append(c.Posts, post)
			c.TotalEngagement += post.Engagement()
			if post.Author != "" && !authors[m.Identifier][post.Author] {
				authors[m.Identifier][post.Author] = true
				c.Authors = append(c.Authors, post.Author)
			}
		}
	}

	for _, c := range clusters {
		c.AvgEngagement = float64(c.TotalEngagement) / float64(len(c.Posts))
	}
	return clusters
}
