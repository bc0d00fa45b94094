// Package twitter fetches recent posts from the X/Twitter v2 recent search API.
package twitter

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/social"
	"meme-coin-sniper/internal/sources"
)

// Name is the source name.
const Name = "twitter"

// DefaultBaseURL is the v2 API root.
const DefaultBaseURL = "https://api.twitter.com/2"

// DefaultQuery targets Solana memecoin chatter.
const DefaultQuery = `(pump.fun OR solana OR "$SOL") -is:retweet lang:en`

// Config configures the client.
type Config struct {
	BaseURL     string
	BearerToken string
	Query       string
	Timeout     time.Duration
}

// Client implements social.PostSource.
type Client struct {
	http  *resty.Client
	query string
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the resty client.
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New creates a recent-search client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	c := &Client{
		http:  sources.NewRESTClient(cfg.BaseURL, cfg.Timeout),
		query: cfg.Query,
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.BearerToken != "" {
		c.http.SetAuthToken(cfg.BearerToken)
	}
	return c
}

var _ social.PostSource = (*Client)(nil)

// Name returns the source name.
func (c *Client) Name() string { return Name }

type searchResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

type tweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
}

// Recent returns up to limit recent posts matching the configured query.
func (c *Client) Recent(ctx context.Context, limit int) ([]domain.SocialPost, error) {
	if limit < 10 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var resp searchResponse
	query := map[string]string{
		"query":        c.query,
		"max_results":  strconv.Itoa(limit),
		"tweet.fields": "created_at,public_metrics,author_id",
		"expansions":   "author_id",
		"user.fields":  "username",
	}
	if err := sources.GetJSON(ctx, c.http, "/tweets/search/recent", query, &resp); err != nil {
		return nil, err
	}

	users := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		users[u.ID] = u.Username
	}

	posts := make([]domain.SocialPost, 0, len(resp.Data))
	for _, t := range resp.Data {
		if t.ID == "" || t.Text == "" {
			continue
		}
		author := users[t.AuthorID]
		if author == "" {
			author = t.AuthorID
		}
		p := domain.SocialPost{
			ID:       t.ID,
			Author:   author,
			Text:     t.Text,
			Likes:    t.PublicMetrics.LikeCount,
			Reshares: t.PublicMetrics.RetweetCount + t.PublicMetrics.QuoteCount,
		}
		if ms := sources.ParseTimeMs(t.CreatedAt); ms != nil {
			p.PostedAt = *ms
		}
		posts = append(posts, p)
	}
	return posts, nil
}
