package social

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-coin-sniper/internal/domain"
)

func post(id, author, text string, likes int, at time.Duration) domain.SocialPost {
	return domain.SocialPost{ID: id, Author: author, Text: text, Likes: likes, Reshares: 1, PostedAt: int64(at / time.Millisecond)}
}

func TestExtractMentions(t *testing.T) {
	posts := []domain.SocialPost{
		post("1", "alice", "$FOO to the moon $foo", 9, 0),
		post("2", "bob", "buying $FOO and "+usdcMint, 19, time.Hour),
		post("3", "alice", "still holding $FOO", 4, 2*time.Hour),
	}

	clusters := ExtractMentions(posts)
	require.Len(t, clusters, 2)

	foo := clusters["FOO"]
	require.NotNil(t, foo)
	assert.Equal(t, domain.MentionSymbol, foo.Kind)
	assert.Len(t, foo.Posts, 3)
	assert.Equal(t, 10+20+5, foo.TotalEngagement)
	assert.InDelta(t, 35.0/3, foo.AvgEngagement, 1e-9)
	assert.Equal(t, []string{"alice", "bob"}, foo.Authors)
	assert.Equal(t, 2, foo.UniqueAuthors())

	addr := clusters[usdcMint]
	require.NotNil(t, addr)
	assert.Equal(t, domain.MentionAddress, addr.Kind)
	assert.Equal(t, 1, addr.UniqueAuthors())
}

func TestAuthorWeights(t *testing.T) {
	w := NewAuthorWeights(AuthorTiers{
		Top: []string{"@Whale"},
		Mid: []string{"mid", "whale"},
		Low: []string{"low"},
	})

	assert.Equal(t, WeightTop, w.Weight("whale"))
	assert.Equal(t, WeightMid, w.Weight("@MID"))
	assert.Equal(t, WeightLow, w.Weight("low"))
	assert.Equal(t, WeightDefault, w.Weight("nobody"))

	var nilWeights *AuthorWeights
	assert.Equal(t, WeightDefault, nilWeights.Weight("x"))
}

func TestHeuristicClassifier(t *testing.T) {
	h := DefaultClassifier()

	t.Run("copy paste shill", func(t *testing.T) {
		var posts []domain.SocialPost
		for i := 0; i < 6; i++ {
			posts = append(posts, post(fmt.Sprint(i), fmt.Sprintf("bot%d", i), "🚀 $FOO 100x gem https://t.co/abc"+fmt.Sprint(i), 0, time.Duration(i)*time.Hour))
		}
		assert.True(t, h.Coordinated(&domain.MentionCluster{Posts: posts}))
	})

	t.Run("single burst", func(t *testing.T) {
		var posts []domain.SocialPost
		for i := 0; i < 5; i++ {
			posts = append(posts, post(fmt.Sprint(i), fmt.Sprintf("u%d", i), fmt.Sprintf("take %d on $FOO", i), 0, time.Duration(i)*10*time.Second))
		}
		assert.True(t, h.Coordinated(&domain.MentionCluster{Posts: posts}))
	})

	t.Run("organic", func(t *testing.T) {
		var posts []domain.SocialPost
		for i := 0; i < 5; i++ {
			posts = append(posts, post(fmt.Sprint(i), fmt.Sprintf("u%d", i), fmt.Sprintf("opinion number %d about $FOO", i), 0, time.Duration(i)*30*time.Minute))
		}
		assert.False(t, h.Coordinated(&domain.MentionCluster{Posts: posts}))
	})

	t.Run("too few posts", func(t *testing.T) {
		posts := []domain.SocialPost{post("1", "a", "same", 0, 0), post("2", "b", "same", 0, 0)}
		assert.False(t, h.Coordinated(&domain.MentionCluster{Posts: posts}))
	})
}

type fixedClassifier bool

func (f fixedClassifier) Coordinated(*domain.MentionCluster) bool { return bool(f) }

func cluster(authors ...string) *domain.MentionCluster {
	c := &domain.MentionCluster{Identifier: "FOO", Kind: domain.MentionSymbol, AvgEngagement: 100}
	seen := map[string]bool{}
	for i, a := range authors {
		c.Posts = append(c.Posts, post(fmt.Sprint(i), a, "$FOO", 99, 0))
		if !seen[a] {
			seen[a] = true
			c.Authors = append(c.Authors, a)
		}
	}
	return c
}

func TestAnalyzer_Buzz(t *testing.T) {
	weights := NewAuthorWeights(AuthorTiers{Top: []string{"kol"}})

	t.Run("single author repetition is not alert worthy", func(t *testing.T) {
		a := &Analyzer{Weights: weights, Classifier: fixedClassifier(false)}
		sig := a.Buzz(cluster("kol", "kol", "kol", "kol"))
		assert.False(t, sig.AlertWorthy)
		assert.Zero(t, sig.Score)
		assert.Equal(t, 4, sig.Mentions)
		assert.Equal(t, 1, sig.UniqueAuthors)
	})

	t.Run("weighted authors raise the score", func(t *testing.T) {
		a := &Analyzer{Weights: weights, Classifier: fixedClassifier(false)}
		plain := a.Buzz(cluster("a", "b", "c"))
		withKOL := a.Buzz(cluster("a", "b", "kol"))
		assert.True(t, plain.AlertWorthy)
		assert.Greater(t, withKOL.Score, plain.Score)
		assert.InDelta(t, 5.0/3, withKOL.MeanAuthorWeight, 1e-9)
	})

	t.Run("coordinated is halved", func(t *testing.T) {
		organic := (&Analyzer{Weights: weights, Classifier: fixedClassifier(false)}).Buzz(cluster("a", "b", "c"))
		paid := (&Analyzer{Weights: weights, Classifier: fixedClassifier(true)}).Buzz(cluster("a", "b", "c"))
		assert.True(t, paid.Coordinated)
		assert.InDelta(t, organic.Score/2, paid.Score, 1e-9)
	})

	t.Run("bounded", func(t *testing.T) {
		var authors []string
		for i := 0; i < 50; i++ {
			authors = append(authors, "kol")
			authors = append(authors, fmt.Sprintf("u%d", i))
		}
		c := cluster(authors...)
		c.AvgEngagement = 1e9
		sig := NewAnalyzer(NewAuthorWeights(AuthorTiers{Top: c.Authors})).Buzz(c)
		assert.LessOrEqual(t, sig.Score, MaxBuzzScore)
		assert.Greater(t, sig.Score, 0.0)
	})
}
