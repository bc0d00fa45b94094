package social

import (
	"context"

	"meme-coin-sniper/internal/domain"
)

// PostSource fetches recent social posts.
type PostSource interface {
	Name() string
	Recent(ctx context.Context, limit int) ([]domain.SocialPost, error)
}
