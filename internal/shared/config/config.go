package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	ctopics "github.com/radieske/betbot/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução dos serviços
// Inclui conexões, tópicos, canais, chaves de API, limites e portas
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string // ex: "betbot", "admin-api", ...
	LogLevel    string

	Storage      string // "postgres" | "memory"
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string // "a:9092,b:9092"

	// Tópicos/canais
	TopicLedger        string
	TopicLedgerDLQ     string
	RedisPubSubChannel string

	TelegramToken string
	AdminIDs      []int64
	AdminAPIToken string // bearer exigido pelo admin-api; vazio desliga a checagem

	Odds   OddsConfig
	AI     AIConfig
	Voice  VoiceConfig
	Limits Limits

	// Portas do serviço atual
	HTTPPort    string // Porta pública (ex.: API REST)
	MetricsPort string // Porta exclusiva para /metrics e /healthz
}

type OddsConfig struct {
	APIKey          string
	BaseURL         string
	Sports          []string
	DefaultSport    string
	RefreshInterval time.Duration
	CacheTTL        time.Duration
}

type AIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	HistoryTurns int
	HistoryTTL   time.Duration
}

type VoiceConfig struct {
	Enabled bool
	APIKey  string
	VoiceID string
	Model   string
}

// Limits são as regras de negócio de valores; a camada de bot e o core leem daqui
type Limits struct {
	InitialBalance  decimal.Decimal
	MinBet          decimal.Decimal
	MaxBet          decimal.Decimal
	MinDeposit      decimal.Decimal
	MaxDeposit      decimal.Decimal
	MinWithdrawal   decimal.Decimal
	SupportedAssets []string
}

// Load carrega .env (se existir), variáveis de ambiente e defaults
// Resolve portas conforme o SERVICE_NAME
func Load() (Config, error) { return LoadService("") }

// LoadService é o Load de cada binário: name vale quando SERVICE_NAME não foi definido
func LoadService(name string) (Config, error) {
	if path := getEnv("ENV_FILE", ".env"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	svc := getEnv("SERVICE_NAME", name)
	env := getEnv("ENV", "local")

	p := &parser{}
	cfg := Config{
		Env:         env,
		ServiceName: svc,
		LogLevel:    getEnv("LOG_LEVEL", ""),

		Storage:      getEnv("STORAGE", DefaultStorage),
		PostgresDSN:  getEnv("POSTGRES_DSN", DefaultPostgresDSN),
		RedisAddr:    getEnv("REDIS_ADDR", DefaultRedisAddr),
		KafkaBrokers: getEnv("KAFKA_BROKERS", DefaultKafkaBrokers),

		TopicLedger:        getEnv("KAFKA_TOPIC_LEDGER", ctopics.LedgerEvents),
		TopicLedgerDLQ:     getEnv("KAFKA_TOPIC_LEDGER_DLQ", ctopics.LedgerEventsDLQ),
		RedisPubSubChannel: getEnv("REDIS_PUBSUB_CHANNEL", DefaultPubSubChannel),

		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		AdminIDs:      p.int64List("ADMIN_IDS"),
		AdminAPIToken: getEnv("ADMIN_API_TOKEN", ""),

		Odds: OddsConfig{
			APIKey:          getEnv("ODDS_API_KEY", ""),
			BaseURL:         getEnv("ODDS_API_URL", DefaultOddsAPIURL),
			Sports:          splitList(getEnv("SPORTS", DefaultSports)),
			DefaultSport:    getEnv("DEFAULT_SPORT", DefaultSport),
			RefreshInterval: p.duration("ODDS_REFRESH_INTERVAL", DefaultOddsRefresh),
			CacheTTL:        p.duration("ODDS_CACHE_TTL", DefaultOddsCacheTTL),
		},
		AI: AIConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_API_URL", DefaultOpenAIURL),
			Model:        getEnv("OPENAI_MODEL", DefaultOpenAIModel),
			HistoryTurns: p.integer("AI_HISTORY_TURNS", DefaultHistoryTurns),
			HistoryTTL:   p.duration("AI_HISTORY_TTL", DefaultHistoryTTL),
		},
		Voice: VoiceConfig{
			Enabled: p.boolean("VOICE_ENABLED", false),
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			VoiceID: getEnv("ELEVENLABS_VOICE_ID", DefaultVoiceID),
			Model:   getEnv("ELEVENLABS_MODEL", DefaultVoiceModel),
		},
		Limits: Limits{
			InitialBalance:  p.decimal("INITIAL_BALANCE", DefaultInitialBalance),
			MinBet:          p.decimal("MIN_BET_AMOUNT", DefaultMinBet),
			MaxBet:          p.decimal("MAX_BET_AMOUNT", DefaultMaxBet),
			MinDeposit:      p.decimal("MIN_DEPOSIT", DefaultMinDeposit),
			MaxDeposit:      p.decimal("MAX_DEPOSIT", DefaultMaxDeposit),
			MinWithdrawal:   p.decimal("MIN_WITHDRAWAL", DefaultMinWithdrawal),
			SupportedAssets: splitList(strings.ToUpper(getEnv("SUPPORTED_ASSETS", DefaultAssets))),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}

	// Define portas padrão para cada serviço
	switch svc {
	case "betbot":
		cfg.HTTPPort = getEnv("HTTP_PORT_BOT", "") // bot usa long polling, sem HTTP público
		cfg.MetricsPort = getEnv("METRICS_PORT_BOT", "9101")
	case "admin-api":
		cfg.HTTPPort = getEnv("HTTP_PORT_ADMIN", "8090")
		cfg.MetricsPort = getEnv("METRICS_PORT_ADMIN", "9102")
	case "odds-worker":
		cfg.HTTPPort = getEnv("HTTP_PORT_ODDS", "")
		cfg.MetricsPort = getEnv("METRICS_PORT_ODDS", "9103")
	case "notification-worker":
		cfg.HTTPPort = getEnv("HTTP_PORT_NOTIFIER", "")
		cfg.MetricsPort = getEnv("METRICS_PORT_NOTIFIER", "9104")
	default:
		cfg.HTTPPort = getEnv("HTTP_PORT", "8080")
		cfg.MetricsPort = getEnv("METRICS_PORT", "9095")
	}

	return cfg, nil
}

// Validate checa a coerência dos limites e o que cada serviço exige
func (c Config) Validate() error {
	l := c.Limits
	switch {
	case !l.MinBet.IsPositive() || l.MaxBet.LessThan(l.MinBet):
		return fmt.Errorf("invalid bet limits: min=%s max=%s", l.MinBet, l.MaxBet)
	case !l.MinDeposit.IsPositive() || l.MaxDeposit.LessThan(l.MinDeposit):
		return fmt.Errorf("invalid deposit limits: min=%s max=%s", l.MinDeposit, l.MaxDeposit)
	case !l.MinWithdrawal.IsPositive():
		return fmt.Errorf("invalid withdrawal minimum: %s", l.MinWithdrawal)
	case l.InitialBalance.IsNegative():
		return fmt.Errorf("invalid initial balance: %s", l.InitialBalance)
	case len(l.SupportedAssets) == 0:
		return errors.New("SUPPORTED_ASSETS is empty")
	}
	if c.Storage != "postgres" && c.Storage != "memory" {
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if (c.ServiceName == "betbot" || c.ServiceName == "notification-worker") && c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if c.ServiceName == "admin-api" && c.Env == "prod" && c.AdminAPIToken == "" {
		return errors.New("ADMIN_API_TOKEN is required in prod")
	}
	if c.ServiceName == "odds-worker" && c.Odds.APIKey == "" {
		return errors.New("ODDS_API_KEY is required")
	}
	return nil
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser guarda o primeiro erro de conversão para Load devolver de uma vez
type parser struct{ err error }

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config %s: %w", key, err)
	}
}

func (p *parser) integer(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) decimal(key, def string) decimal.Decimal {
	v := getEnv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(key, err)
		return decimal.Zero
	}
	return d
}

func (p *parser) int64List(key string) []int64 {
	var out []int64
	for _, part := range splitList(getEnv(key, "")) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			p.fail(key, err)
			continue
		}
		out = append(out, id)
	}
	return out
}
