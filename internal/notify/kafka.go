package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"meme-coin-sniper/internal/domain"
)

// Default topics.
const (
	DefaultTokensTopic = "radar.tokens"
	DefaultAlertsTopic = "radar.cobuy_alerts"
)

// KafkaConfig configures the Kafka notifier.
type KafkaConfig struct {
	Brokers      []string
	TokensTopic  string
	AlertsTopic  string
	WriteTimeout time.Duration
}

// messageWriter is the part of kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes one JSON message per record, keyed by mint, to a topic per
// record kind.
type Kafka struct {
	writer      messageWriter
	tokensTopic string
	alertsTopic string
	now         func() time.Time
}

// NewKafka creates a Kafka notifier. The writer has no fixed topic; each
// message names its own.
func NewKafka(cfg KafkaConfig) *Kafka {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		WriteTimeout: cfg.WriteTimeout,
	}
	return newKafka(w, cfg)
}

func newKafka(w messageWriter, cfg KafkaConfig) *Kafka {
	if cfg.TokensTopic == "" {
		cfg.TokensTopic = DefaultTokensTopic
	}
	if cfg.AlertsTopic == "" {
		cfg.AlertsTopic = DefaultAlertsTopic
	}
	return &Kafka{
		writer:      w,
		tokensTopic: cfg.TokensTopic,
		alertsTopic: cfg.AlertsTopic,
		now:         time.Now,
	}
}

var _ Notifier = (*Kafka)(nil)

// TokenMessage is the wire form of a scored token.
type TokenMessage struct {
	Address      string                `json:"address"`
	Symbol       string                `json:"symbol"`
	Name         string                `json:"name"`
	Venue        string                `json:"venue"`
	LiquidityUSD *float64              `json:"liquidity_usd"`
	PriceUSD     *float64              `json:"price_usd"`
	Score        domain.ScoreBreakdown `json:"score"`
	Flags        []string              `json:"flags"`
	Website      string                `json:"website,omitempty"`
	Twitter      string                `json:"twitter,omitempty"`
	Telegram     string                `json:"telegram,omitempty"`
	DiscoveredAt int64                 `json:"discovered_at"`
}

// AlertMessage is the wire form of a co-buy alert.
type AlertMessage struct {
	ID           string   `json:"id"`
	Mint         string   `json:"mint"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Buyers       []string `json:"buyers"`
	BuyerCount   int      `json:"buyer_count"`
	FirstBuyAt   int64    `json:"first_buy_at"`
	LastBuyAt    int64    `json:"last_buy_at"`
	LiquidityUSD *float64 `json:"liquidity_usd"`
	PriceUSD     *float64 `json:"price_usd"`
}

// NotifyTokens publishes tokens to the tokens topic.
func (k *Kafka) NotifyTokens(ctx context.Context, tokens []domain.ScoredToken) error {
	if len(tokens) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(tokens))
	for i := range tokens {
		t := &tokens[i]
		p := &t.Token.MarketPair
		value, err := json.Marshal(TokenMessage{
			Address:      t.Token.Key,
			Symbol:       p.BaseSymbol,
			Name:         p.BaseName,
			Venue:        p.Venue,
			LiquidityUSD: p.LiquidityUSD,
			PriceUSD:     p.PriceUSD,
			Score:        t.Score,
			Flags:        t.Flags(),
			Website:      p.Socials.Website,
			Twitter:      p.Socials.Twitter,
			Telegram:     p.Socials.Telegram,
			DiscoveredAt: t.DiscoveredAt,
		})
		if err != nil {
			return fmt.Errorf("marshal token %s: %w", t.Token.Key, err)
		}
		msgs = append(msgs, k.message(k.tokensTopic, t.Token.Key, value))
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish tokens: %w", err)
	}
	return nil
}

// NotifyAlerts publishes alerts to the alerts topic.
func (k *Kafka) NotifyAlerts(ctx context.Context, alerts []domain.CoBuyAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(alerts))
	for i := range alerts {
		a := &alerts[i]
		value, err := json.Marshal(AlertMessage{
			ID:           a.ID,
			Mint:         a.Mint,
			Symbol:       a.Symbol,
			Name:         a.Name,
			Buyers:       a.Buyers,
			BuyerCount:   a.BuyerCount,
			FirstBuyAt:   a.FirstBuyAt,
			LastBuyAt:    a.LastBuyAt,
			LiquidityUSD: a.LiquidityUSD,
			PriceUSD:     a.PriceUSD,
		})
		if err != nil {
			return fmt.Errorf("marshal alert %s: %w", a.Mint, err)
		}
		msgs = append(msgs, k.message(k.alertsTopic, a.Mint, value))
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}
	return nil
}

func (k *Kafka) message(topic, key string, value []byte) kafka.Message {
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  k.now(),
	}
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
