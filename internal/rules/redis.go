package rules

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
)

// Default redis keys.
const (
	DefaultRulesKey   = "cobuy:rules"
	DefaultWalletsKey = "cobuy:wallets"
)

// Hash fields of the rules key.
const (
	fieldMinBuyers     = "min_buyers"
	fieldLookbackHours = "max_lookback_hours"
	fieldMaxAlerts     = "max_alerts"
)

// RedisStore reads rules from a redis hash.
type RedisStore struct {
	client redis.Cmdable
	key    string
	logger zerolog.Logger
}

// NewRedisStore creates a RedisStore. An empty key uses DefaultRulesKey.
func NewRedisStore(client redis.Cmdable, key string, logger zerolog.Logger) *RedisStore {
	if key == "" {
		key = DefaultRulesKey
	}
	return &RedisStore{
		client: client,
		key:    key,
		logger: logger.With().Str("component", "rule_store").Logger(),
	}
}

var _ Store = (*RedisStore)(nil)

// Load reads the rules hash. Missing or invalid fields take their default
// individually; an unreachable server returns ErrUnavailable.
func (s *RedisStore) Load(ctx context.Context) (domain.AlertRules, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return domain.AlertRules{}, fmt.Errorf("%w: hgetall %s: %v", ErrUnavailable, s.key, err)
	}

	return domain.AlertRules{
		MinBuyers:        s.field(fields, fieldMinBuyers, domain.DefaultMinBuyers),
		MaxLookbackHours: s.field(fields, fieldLookbackHours, domain.DefaultMaxLookbackHours),
		MaxAlerts:        s.field(fields, fieldMaxAlerts, domain.DefaultMaxAlerts),
	}, nil
}

// Save writes rules, used by admin tooling.
func (s *RedisStore) Save(ctx context.Context, r domain.AlertRules) error {
	r = r.Normalized()
	err := s.client.HSet(ctx, s.key,
		fieldMinBuyers, r.MinBuyers,
		fieldLookbackHours, r.MaxLookbackHours,
		fieldMaxAlerts, r.MaxAlerts,
	).Err()
	if err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}

func (s *RedisStore) field(fields map[string]string, name string, def int) int {
	raw, ok := fields[name]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		s.logger.Warn().Str("field", name).Str("value", raw).Int("default", def).Msg("invalid rule value")
		return def
	}
	return v
}

// RedisRegistry reads tracked wallets from a redis hash of address to label.
type RedisRegistry struct {
	client redis.Cmdable
	key    string
}

// NewRedisRegistry creates a RedisRegistry. An empty key uses DefaultWalletsKey.
func NewRedisRegistry(client redis.Cmdable, key string) *RedisRegistry {
	if key == "" {
		key = DefaultWalletsKey
	}
	return &RedisRegistry{client: client, key: key}
}

var _ Registry = (*RedisRegistry)(nil)

// List returns all wallets sorted by address.
func (r *RedisRegistry) List(ctx context.Context) ([]domain.TrackedWallet, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall %s: %v", ErrUnavailable, r.key, err)
	}
	out := make([]domain.TrackedWallet, 0, len(fields))
	for addr, label := range fields {
		out = append(out, domain.TrackedWallet{Address: addr, Label: label})
	}
	sortWallets(out)
	return out, nil
}

// Add registers or relabels a wallet.
func (r *RedisRegistry) Add(ctx context.Context, w domain.TrackedWallet) error {
	if err := r.client.HSet(ctx, r.key, w.Address, w.Label).Err(); err != nil {
		return fmt.Errorf("add wallet: %w", err)
	}
	return nil
}
