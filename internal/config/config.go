package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"spreadscan/pkg/model"
)

// Config represents the application configuration
type Config struct {
	Tickers       []string          `yaml:"tickers" toml:"tickers" validate:"required,min=1,dive,required"`
	Names         map[string]string `yaml:"names" toml:"names"`
	HistoryBuffer int               `yaml:"history_buffer" toml:"history_buffer" validate:"gte=2"`
	MonthsToTest  int               `yaml:"months_to_test" toml:"months_to_test" validate:"gte=1,ltefield=HistoryBuffer"`
	Granularity   string            `yaml:"granularity" toml:"granularity" validate:"oneof=daily weekly monthly quarterly 1d 1wk 1mo 3mo"`
	Rules         []string          `yaml:"rules" toml:"rules"`

	UI      UIConfig      `yaml:"ui" toml:"ui"`
	Labels  LabelConfig   `yaml:"labels" toml:"labels"`
	Scanner ScannerConfig `yaml:"scanner" toml:"scanner"`
	Yahoo   YahooConfig   `yaml:"yahoo" toml:"yahoo"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
}

// UIConfig holds the style tokens for the two outcome classes
type UIConfig struct {
	RedStyle   string `yaml:"red_style" toml:"red_style"`     // colour for "no setup"
	GreenStyle string `yaml:"green_style" toml:"green_style"` // colour for "setup found"
	RedIcon    string `yaml:"red_icon" toml:"red_icon"`
	GreenIcon  string `yaml:"green_icon" toml:"green_icon"`
}

// LabelConfig controls period label formatting
type LabelConfig struct {
	MonthlyFormat string `yaml:"monthly_format" toml:"monthly_format"` // Go layout, e.g. "January 2006" or "Jan 06"
	WeeklyStyle   string `yaml:"weekly_style" toml:"weekly_style" validate:"omitempty,oneof=ordinal month iso"`
}

// ScannerConfig holds scanner settings
type ScannerConfig struct {
	Workers   int      `yaml:"workers" toml:"workers" validate:"gte=1,lte=64"`
	Timeout   Duration `yaml:"timeout" toml:"timeout"`
	WithPrice bool     `yaml:"with_price" toml:"with_price"`
}

// YahooConfig holds data source settings
type YahooConfig struct {
	BaseURL   string   `yaml:"base_url" toml:"base_url" validate:"omitempty,url"`
	Proxy     string   `yaml:"proxy" toml:"proxy" validate:"omitempty,url"`
	RateLimit int      `yaml:"rate_limit" toml:"rate_limit" validate:"gte=0"` // requests per minute
	Timeout   Duration `yaml:"timeout" toml:"timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level" toml:"level" validate:"oneof=trace debug info warn error"`
}

// WatchConfig holds the re-scan schedule
type WatchConfig struct {
	Cron            string `yaml:"cron" toml:"cron"`
	TradingDaysOnly bool   `yaml:"trading_days_only" toml:"trading_days_only"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port int `yaml:"port" toml:"port" validate:"gte=1,lte=65535"`
}

// Duration is a time.Duration read from strings such as "30s"
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default configuration. It has no tickers.
func DefaultConfig() *Config {
	return &Config{
		Names:         map[string]string{},
		HistoryBuffer: 12,
		MonthsToTest:  3,
		Granularity:   string(model.Monthly),
		UI: UIConfig{
			RedStyle:   "#ff4b4b",
			GreenStyle: "#09ab3b",
			RedIcon:    "🔴",
			GreenIcon:  "🟢",
		},
		Labels: LabelConfig{
			MonthlyFormat: "January 2006",
			WeeklyStyle:   "month",
		},
		Scanner: ScannerConfig{
			Workers:   1,
			Timeout:   Duration{2 * time.Minute},
			WithPrice: true,
		},
		Yahoo: YahooConfig{
			RateLimit: 60,
			Timeout:   Duration{30 * time.Second},
		},
		Log:    LogConfig{Level: "info"},
		Watch:  WatchConfig{Cron: "30 16 * * 1-5", TradingDaysOnly: true},
		Server: ServerConfig{Port: 8080},
	}
}

// Load loads configuration from a YAML or TOML file (by extension), then
// applies environment overrides. A .env file next to the config is read first.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Yahoo.Proxy == "" {
		cfg.Yahoo.Proxy = v
	}
	if v := os.Getenv("SPREADSCAN_PROXY"); v != "" {
		cfg.Yahoo.Proxy = v
	}
	if v := os.Getenv("SPREADSCAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SPREADSCAN_TICKERS"); v != "" {
		cfg.Tickers = strings.Split(v, ",")
	}
}

// Validate checks the configuration. A missing ticker list is
// model.ErrConfigurationMissing; anything else is a plain validation error.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.StructField() == "Tickers" && (fe.Tag() == "required" || fe.Tag() == "min") {
			return fmt.Errorf("tickers: at least one ticker symbol is required: %w", model.ErrConfigurationMissing)
		}
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "ltefield":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// DisplayName returns the configured name for ticker, or the ticker itself
func (c *Config) DisplayName(ticker string) string {
	if name, ok := c.Names[ticker]; ok && name != "" {
		return name
	}
	return ticker
}

// ScanGranularity returns the configured default granularity
func (c *Config) ScanGranularity() model.Granularity {
	g, err := model.ParseGranularity(c.Granularity)
	if err != nil {
		return model.Monthly
	}
	return g
}
