package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/notify"
	"meme-coin-sniper/internal/rules"
)

// Load reads path (optional), applies environment overrides, fills defaults
// and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment. Existing
// variables win; missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("HTTP_ADDR", &cfg.Server.Addr)
	str("POSTGRES_DSN", &cfg.Postgres.DSN)
	str("CLICKHOUSE_DSN", &cfg.ClickHouse.DSN)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	integer("REDIS_DB", &cfg.Redis.DB)
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	str("BIRDEYE_API_KEY", &cfg.Sources.Birdeye.APIKey)
	str("HELIUS_API_KEY", &cfg.Sources.Helius.APIKey)
	str("SOLANA_RPC_ENDPOINT", &cfg.Sources.SolanaRPC.Endpoint)
	str("TWITTER_BEARER_TOKEN", &cfg.Sources.Twitter.BearerToken)
	float("SOL_PRICE_USD", &cfg.Sources.PumpPortal.SolPriceUSD)
	integer("COBUY_MIN_BUYERS", &cfg.CoBuy.Rules.MinBuyers)
	duration("SCAN_INTERVAL", &cfg.Schedule.ScanInterval)
	duration("ALERT_INTERVAL", &cfg.Schedule.AlertInterval)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Defaults for values no component defaults on its own.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultPostgresConns   = 10
	DefaultWalletDelay     = 200 * time.Millisecond
	DefaultScanInterval    = 5 * time.Minute
	DefaultAlertInterval   = 10 * time.Minute
	DefaultRPCRate         = 10
	DefaultNotifyMinScore  = 70
	DefaultLogLevel        = "info"
)

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Postgres.MaxConns <= 0 {
		c.Postgres.MaxConns = DefaultPostgresConns
	}
	if c.Redis.RulesKey == "" {
		c.Redis.RulesKey = rules.DefaultRulesKey
	}
	if c.Redis.WalletsKey == "" {
		c.Redis.WalletsKey = rules.DefaultWalletsKey
	}
	if c.Kafka.TokensTopic == "" {
		c.Kafka.TokensTopic = notify.DefaultTokensTopic
	}
	if c.Kafka.AlertsTopic == "" {
		c.Kafka.AlertsTopic = notify.DefaultAlertsTopic
	}
	if c.Sources.SolanaRPC.RPS <= 0 {
		c.Sources.SolanaRPC.RPS = DefaultRPCRate
	}
	if c.Scorer.NotifyMinScore <= 0 {
		c.Scorer.NotifyMinScore = DefaultNotifyMinScore
	}

	def := domain.DefaultAlertRules()
	if c.CoBuy.Rules.MinBuyers <= 0 {
		c.CoBuy.Rules.MinBuyers = def.MinBuyers
	}
	if c.CoBuy.Rules.MaxLookbackHours <= 0 {
		c.CoBuy.Rules.MaxLookbackHours = def.MaxLookbackHours
	}
	if c.CoBuy.Rules.MaxAlerts <= 0 {
		c.CoBuy.Rules.MaxAlerts = def.MaxAlerts
	}
	if c.CoBuy.WalletDelay == 0 {
		c.CoBuy.WalletDelay = DefaultWalletDelay
	}

	if c.Schedule.ScanInterval == 0 {
		c.Schedule.ScanInterval = DefaultScanInterval
	}
	if c.Schedule.AlertInterval == 0 {
		c.Schedule.AlertInterval = DefaultAlertInterval
	}
	if len(c.Schedule.ScanViews) == 0 {
		c.Schedule.ScanViews = []string{string(domain.ViewNew), string(domain.ViewTrending), string(domain.ViewSurge)}
	}
}

// Validate rejects contradictory or out-of-range settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Sources.Birdeye.Enabled && c.Sources.Birdeye.APIKey == "" {
		errs = append(errs, errors.New("sources.birdeye: enabled without api_key"))
	}
	if c.Sources.Twitter.Enabled && c.Sources.Twitter.BearerToken == "" {
		errs = append(errs, errors.New("sources.twitter: enabled without bearer_token"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.TokensTopic == c.Kafka.AlertsTopic {
		errs = append(errs, errors.New("kafka: tokens_topic and alerts_topic must differ"))
	}
	if c.Aggregator.WidenFactor < 0 || c.Aggregator.FetchLimit < 0 ||
		c.Aggregator.FreeLimit < 0 || c.Aggregator.PaidLimit < 0 {
		errs = append(errs, errors.New("aggregator: limits must not be negative"))
	}
	if c.Aggregator.FreeLimit > 0 && c.Aggregator.PaidLimit > 0 && c.Aggregator.FreeLimit > c.Aggregator.PaidLimit {
		errs = append(errs, errors.New("aggregator: free_limit exceeds paid_limit"))
	}
	if c.Scorer.NotifyMinScore > 100 {
		errs = append(errs, errors.New("scorer: notify_min_score above 100"))
	}
	if c.CoBuy.Workers < 0 || c.CoBuy.WalletDelay < 0 || c.CoBuy.EventsPerWallet < 0 {
		errs = append(errs, errors.New("cobuy: workers, wallet_delay and events_per_wallet must not be negative"))
	}
	if c.Schedule.ScanInterval < 0 || c.Schedule.AlertInterval < 0 {
		errs = append(errs, errors.New("schedule: intervals must not be negative"))
	}
	for _, v := range c.Schedule.ScanViews {
		if !domain.View(v).IsValid() {
			errs = append(errs, fmt.Errorf("schedule: unknown scan view %q", v))
		}
	}
	for i, w := range c.CoBuy.Wallets {
		if w.Address == "" {
			errs = append(errs, fmt.Errorf("cobuy.wallets[%d]: empty address", i))
		}
	}
	return errors.Join(errs...)
}

// AlertRules returns the static co-buy rules.
func (c *Config) AlertRules() domain.AlertRules {
	return domain.AlertRules{
		MinBuyers:        c.CoBuy.Rules.MinBuyers,
		MaxLookbackHours: c.CoBuy.Rules.MaxLookbackHours,
		MaxAlerts:        c.CoBuy.Rules.MaxAlerts,
	}
}

// TrackedWallets returns the static wallet list.
func (c *Config) TrackedWallets() []domain.TrackedWallet {
	out := make([]domain.TrackedWallet, 0, len(c.CoBuy.Wallets))
	for _, w := range c.CoBuy.Wallets {
		out = append(out, domain.TrackedWallet{Address: w.Address, Label: w.Label})
	}
	return out
}
