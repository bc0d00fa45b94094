// Package config loads the radar configuration from an optional YAML file
// and the environment.
package config

import (
	"time"

	"meme-coin-sniper/internal/social"
)

// Config is the whole process configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Sources    SourcesConfig    `yaml:"sources"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Scorer     ScorerConfig     `yaml:"scorer"`
	Social     SocialConfig     `yaml:"social"`
	CoBuy      CoBuyConfig      `yaml:"cobuy"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PostgresConfig enables the scored-token store when DSN is set.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

// ClickHouseConfig enables score and alert history when DSN is set.
type ClickHouseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig enables the rule store and wallet registry when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	RulesKey   string `yaml:"rules_key"`
	WalletsKey string `yaml:"wallets_key"`
}

// KafkaConfig enables notifications when Brokers is non-empty.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	TokensTopic  string        `yaml:"tokens_topic"`
	AlertsTopic  string        `yaml:"alerts_topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type SourcesConfig struct {
	Breaker       BreakerConfig       `yaml:"breaker"`
	DexScreener   RESTSourceConfig    `yaml:"dexscreener"`
	GeckoTerminal GeckoTerminalConfig `yaml:"geckoterminal"`
	Birdeye       BirdeyeConfig       `yaml:"birdeye"`
	PumpPortal    PumpPortalConfig    `yaml:"pumpportal"`
	GoPlus        RESTSourceConfig    `yaml:"goplus"`
	Helius        HeliusConfig        `yaml:"helius"`
	SolanaRPC     SolanaRPCConfig     `yaml:"solana_rpc"`
	Twitter       TwitterConfig       `yaml:"twitter"`
}

// BreakerConfig is shared by every source guard.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenFor             time.Duration `yaml:"open_for"`
}

// RESTSourceConfig covers keyless adapters, which are on unless disabled.
// An empty BaseURL uses the adapter default.
type RESTSourceConfig struct {
	Disabled bool          `yaml:"disabled"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Spacing  time.Duration `yaml:"spacing"`
}

type GeckoTerminalConfig struct {
	RESTSourceConfig `yaml:",inline"`
	NewPoolPages     int `yaml:"new_pool_pages"`
}

// BirdeyeConfig is opt-in since the API needs a key.
type BirdeyeConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	Spacing       time.Duration `yaml:"spacing"`
	MemePlatforms bool          `yaml:"meme_platforms"`
}

type PumpPortalConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Endpoint    string        `yaml:"endpoint"`
	Window      time.Duration `yaml:"window"`
	MaxEvents   int           `yaml:"max_events"`
	SolPriceUSD float64       `yaml:"sol_price_usd"`
}

// HeliusConfig is the preferred wallet activity source when APIKey is set.
type HeliusConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// SolanaRPCConfig is the wallet activity fallback when Helius has no key.
type SolanaRPCConfig struct {
	Endpoint string        `yaml:"endpoint"`
	RPS      float64       `yaml:"rps"`
	Timeout  time.Duration `yaml:"timeout"`
}

type TwitterConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	BearerToken string        `yaml:"bearer_token"`
	Query       string        `yaml:"query"`
	Timeout     time.Duration `yaml:"timeout"`
}

type AggregatorConfig struct {
	Venues      []string      `yaml:"venues"`
	PushTimeout time.Duration `yaml:"push_timeout"`
	NewMaxAge   time.Duration `yaml:"new_max_age"`
	WidenFactor int           `yaml:"widen_factor"`
	FetchLimit  int           `yaml:"fetch_limit"`
	FreeLimit   int           `yaml:"free_limit"`
	PaidLimit   int           `yaml:"paid_limit"`
}

type ScorerConfig struct {
	NeutralSecurity        int           `yaml:"neutral_security"`
	ConcentrationThreshold float64       `yaml:"concentration_threshold"`
	ConcentrationPenalty   float64       `yaml:"concentration_penalty"`
	GateTimeout            time.Duration `yaml:"gate_timeout"`
	GateWorkers            int           `yaml:"gate_workers"`
	NotifyMinScore         int           `yaml:"notify_min_score"`
}

type SocialConfig struct {
	Authors    social.AuthorTiers `yaml:"authors"`
	MinAuthors int                `yaml:"min_authors"`
	PostLimit  int                `yaml:"post_limit"`
}

// CoBuyConfig configures the wallet engine. Rules and Wallets are used
// only when redis is not configured.
type CoBuyConfig struct {
	Rules           RulesConfig    `yaml:"rules"`
	Wallets         []WalletConfig `yaml:"wallets"`
	Workers         int            `yaml:"workers"`
	WalletDelay     time.Duration  `yaml:"wallet_delay"`
	EventsPerWallet int            `yaml:"events_per_wallet"`
}

type RulesConfig struct {
	MinBuyers        int `yaml:"min_buyers"`
	MaxLookbackHours int `yaml:"max_lookback_hours"`
	MaxAlerts        int `yaml:"max_alerts"`
}

type WalletConfig struct {
	Address string `yaml:"address"`
	Label   string `yaml:"label"`
}

// ScheduleConfig drives the serve command. A zero interval disables a job.
type ScheduleConfig struct {
	ScanInterval  time.Duration `yaml:"scan_interval"`
	ScanViews     []string      `yaml:"scan_views"`
	AlertInterval time.Duration `yaml:"alert_interval"`
	RunOnStart    bool          `yaml:"run_on_start"`
}
