package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"PriceWindow/internal/domain/models"
	"PriceWindow/pkg/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Known price sources, in default priority order.
const (
	SourceBinance  = "binance"
	SourceBybit    = "bybit"
	SourceOKX      = "okx"
	SourceCoinbase = "coinbase"
	SourceFinnhub  = "finnhub"
)

var knownSources = map[string]bool{
	SourceBinance: true, SourceBybit: true, SourceOKX: true, SourceCoinbase: true, SourceFinnhub: true,
}

var knownStrategies = map[string]bool{"random": true, "momentum": true, "edge": true}

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Endpoint struct {
	BaseURL string `yaml:"base_url"`
}

type Asset struct {
	Symbol  string            `yaml:"symbol"`
	Name    string            `yaml:"name"`
	Symbols map[string]string `yaml:"symbols"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		RateLimit       RateLimit     `yaml:"rate_limit"`
	} `yaml:"server"`
	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		Output     string `yaml:"output"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Refresh struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"refresh"`
	Windows []string `yaml:"windows"`
	Assets  []Asset  `yaml:"assets"`
	Sources struct {
		Order     []string      `yaml:"order"`
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit RateLimit     `yaml:"rate_limit"`
		Binance   Endpoint      `yaml:"binance"`
		Bybit     Endpoint      `yaml:"bybit"`
		OKX       Endpoint      `yaml:"okx"`
		Coinbase  Endpoint      `yaml:"coinbase"`
	} `yaml:"sources"`
	Finnhub struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		StaleAfter     time.Duration `yaml:"stale_after"`
		OpenTolerance  time.Duration `yaml:"open_tolerance"`
	} `yaml:"finnhub"`
	Classifier struct {
		Strategy string        `yaml:"strategy"`
		Timeout  time.Duration `yaml:"timeout"`
		Momentum struct {
			FlatBandPct    float64 `yaml:"flat_band_pct"`
			StrongMovePct  float64 `yaml:"strong_move_pct"`
			HighConfidence float64 `yaml:"high_confidence"`
		} `yaml:"momentum"`
		Edge struct {
			URL            string        `yaml:"url"`
			Timeout        time.Duration `yaml:"timeout"`
			Attempts       int           `yaml:"attempts"`
			NeutralBand    float64       `yaml:"neutral_band"`
			HighConfidence float64       `yaml:"high_confidence"`
		} `yaml:"edge"`
	} `yaml:"classifier"`
	Cache struct {
		Type   string `yaml:"type"` // memory, redis or layered
		Memory struct {
			MaxSize         int           `yaml:"max_size"`
			CleanupInterval time.Duration `yaml:"cleanup_interval"`
		} `yaml:"memory"`
		Redis struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Snapshot struct {
		MaxConcurrency int    `yaml:"max_concurrency"`
		Platform       string `yaml:"platform"`
	} `yaml:"snapshot"`
}

// Load reads, defaults and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv is Load with .env and environment overrides applied before validation.
func LoadWithEnv(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PRICEWINDOW_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &models.ConfigurationError{Field: "REFRESH_INTERVAL", Msg: err.Error()}
		}
		c.Refresh.Interval = d
	}
	if v := os.Getenv("SOURCES_ORDER"); v != "" {
		c.Sources.Order = splitList(v)
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("CLASSIFIER_STRATEGY"); v != "" {
		c.Classifier.Strategy = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return &models.ConfigurationError{Field: "REDIS_ADDR", Msg: err.Error()}
		}
		c.Cache.Redis.Host = host
		c.Cache.Redis.Port = util.ParseIntDefault(port, 6379)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 5 * time.Second
	}
	if len(c.Windows) == 0 {
		c.Windows = []string{models.Window15m.Label, models.Window1h.Label}
	}
	if len(c.Sources.Order) == 0 {
		c.Sources.Order = []string{SourceBinance, SourceBybit, SourceOKX, SourceCoinbase}
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 4 * time.Second
	}
	if c.Finnhub.ReconnectDelay == 0 {
		c.Finnhub.ReconnectDelay = 5 * time.Second
	}
	if c.Finnhub.PingInterval == 0 {
		c.Finnhub.PingInterval = 20 * time.Second
	}
	if c.Classifier.Strategy == "" {
		c.Classifier.Strategy = "momentum"
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 2 * time.Second
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.Redis.Port == 0 {
		c.Cache.Redis.Port = 6379
	}
	if c.Snapshot.MaxConcurrency == 0 {
		c.Snapshot.MaxConcurrency = 8
	}
}

// Validate fails fast on anything that would make the service unusable.
func (c *Config) Validate() error {
	if c.Refresh.Interval < time.Second || c.Refresh.Interval > time.Minute {
		return cfgErr("refresh.interval", "must be between 1s and 60s, got %s", c.Refresh.Interval)
	}
	if c.Sources.Timeout <= 0 || c.Sources.Timeout > 5*time.Second {
		return cfgErr("sources.timeout", "must be in (0s, 5s], got %s", c.Sources.Timeout)
	}
	if _, err := c.WindowSpecs(); err != nil {
		return err
	}

	enabled := make(map[string]bool, len(c.Sources.Order))
	for _, s := range c.Sources.Order {
		if !knownSources[s] {
			return cfgErr("sources.order", "unknown source %q", s)
		}
		if enabled[s] {
			return cfgErr("sources.order", "duplicate source %q", s)
		}
		enabled[s] = true
	}
	if len(enabled) == 0 {
		return cfgErr("sources.order", "at least one source is required")
	}
	if enabled[SourceFinnhub] {
		if !c.Finnhub.Enabled {
			return cfgErr("finnhub.enabled", "finnhub is in sources.order but not enabled")
		}
		if c.Finnhub.APIKey == "" {
			return cfgErr("finnhub.api_key", "required when finnhub is enabled")
		}
	}

	if len(c.Assets) == 0 {
		return cfgErr("assets", "at least one asset is required")
	}
	seen := make(map[string]bool, len(c.Assets))
	for _, a := range c.Assets {
		if a.Symbol == "" {
			return cfgErr("assets", "asset symbol is required")
		}
		if seen[a.Symbol] {
			return cfgErr("assets", "duplicate asset %q", a.Symbol)
		}
		seen[a.Symbol] = true
		mapped := false
		for src, sym := range a.Symbols {
			if enabled[src] && sym != "" {
				mapped = true
				break
			}
		}
		if !mapped {
			return cfgErr("assets", "asset %q maps to none of the enabled sources", a.Symbol)
		}
	}

	if !knownStrategies[c.Classifier.Strategy] {
		return cfgErr("classifier.strategy", "unknown strategy %q", c.Classifier.Strategy)
	}
	if c.Classifier.Strategy == "edge" && c.Classifier.Edge.URL == "" {
		return cfgErr("classifier.edge.url", "required for the edge strategy")
	}

	switch c.Cache.Type {
	case "memory", "redis", "layered":
	default:
		return cfgErr("cache.type", "must be memory, redis or layered, got %q", c.Cache.Type)
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return cfgErr("kafka", "brokers and topic are required when kafka is enabled")
	}
	return nil
}

// WindowSpecs parses the configured window labels.
func (c *Config) WindowSpecs() ([]models.WindowSpec, error) {
	if len(c.Windows) == 0 {
		return nil, cfgErr("windows", "at least one window is required")
	}
	out := make([]models.WindowSpec, 0, len(c.Windows))
	seen := make(map[string]bool, len(c.Windows))
	for _, label := range c.Windows {
		w, err := models.ParseWindow(label)
		if err != nil {
			return nil, err
		}
		if seen[w.Label] {
			return nil, cfgErr("windows", "duplicate window %q", w.Label)
		}
		seen[w.Label] = true
		out = append(out, w)
	}
	return out, nil
}

// AssetSpecs converts the asset list into domain specs, preserving order.
func (c *Config) AssetSpecs() []models.AssetSpec {
	out := make([]models.AssetSpec, 0, len(c.Assets))
	for _, a := range c.Assets {
		name := a.Name
		if name == "" {
			name = a.Symbol
		}
		out = append(out, models.AssetSpec{Asset: models.Asset(a.Symbol), Name: name, Symbols: a.Symbols})
	}
	return out
}

// SourceEnabled reports whether name is in sources.order.
func (c *Config) SourceEnabled(name string) bool {
	for _, s := range c.Sources.Order {
		if s == name {
			return true
		}
	}
	return false
}

func cfgErr(field, format string, args ...interface{}) error {
	return &models.ConfigurationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
