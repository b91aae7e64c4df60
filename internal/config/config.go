package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Config holds the full application configuration.
type Config struct {
	Input     InputConfig     `yaml:"input" mapstructure:"input"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Summary   SummaryConfig   `yaml:"summary" mapstructure:"summary"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// InputConfig configures how uploaded tables are read.
type InputConfig struct {
	HasHeader bool   `yaml:"has_header" mapstructure:"has_header"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Sheet     string `yaml:"sheet" mapstructure:"sheet"`
}

// DelimiterRune returns the CSV delimiter, defaulting to ','.
func (c InputConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}

// ReportConfig configures rendering and export.
type ReportConfig struct {
	Lang       string `yaml:"lang" mapstructure:"lang"`
	Currency   string `yaml:"currency" mapstructure:"currency"`
	SortBy     string `yaml:"sort_by" mapstructure:"sort_by"`
	SampleSize int    `yaml:"sample_size" mapstructure:"sample_size"`
}

// Language parses the configured locale.
func (c ReportConfig) Language() (language.Tag, error) {
	tag, err := language.Parse(c.Lang)
	if err != nil {
		return language.Und, eris.Wrapf(err, "config: parse report.lang %q", c.Lang)
	}
	return tag, nil
}

// CurrencyUnit parses the configured ISO 4217 currency code.
func (c ReportConfig) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, eris.Wrapf(err, "config: parse report.currency %q", c.Currency)
	}
	return unit, nil
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// SummaryConfig configures the LLM summary.
type SummaryConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Fallback string `yaml:"fallback" mapstructure:"fallback"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.has_header", true)
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("report.lang", "pt-BR")
	v.SetDefault("report.currency", "BRL")
	v.SetDefault("report.sort_by", "id")
	v.SetDefault("report.sample_size", 10)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("summary.enabled", false)
	v.SetDefault("summary.fallback", "Resumo indisponível no momento.")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is "reconcile" or
// "summary"; summary additionally requires Anthropic credentials.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "reconcile", "summary":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if _, err := c.Report.Language(); err != nil {
		problems = append(problems, "report.lang must be a BCP 47 tag")
	}
	if _, err := c.Report.CurrencyUnit(); err != nil {
		problems = append(problems, "report.currency must be an ISO 4217 code")
	}
	if c.Report.SampleSize < 1 {
		problems = append(problems, "report.sample_size must be >= 1")
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		problems = append(problems, "input.delimiter must be a single character")
	}

	if mode == "summary" {
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Anthropic.Model == "" {
			problems = append(problems, "anthropic.model is required")
		}
		if c.Anthropic.MaxTokens <= 0 {
			problems = append(problems, "anthropic.max_tokens must be > 0")
		}
		if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
			problems = append(problems, "anthropic.temperature must be between 0 and 1")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
