// Package config loads process configuration from an optional YAML file and
// the environment. Environment values win over the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/nav21/stockAnalyzer/internal/model"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Port        string `yaml:"port"`
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Ingestion struct {
		Symbols       []string `yaml:"symbols"`
		PriceSchedule string   `yaml:"price_schedule"`
		NewsSchedule  string   `yaml:"news_schedule"`
		RunOnStart    bool     `yaml:"run_on_start"`
	} `yaml:"ingestion"`
	Providers struct {
		Quote   string `yaml:"quote"`
		News    string `yaml:"news"`
		History string `yaml:"history"`
	} `yaml:"providers"`
	LLM struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		RangeExtractor string `yaml:"range_extractor"`
	} `yaml:"llm"`
	Keys struct {
		EODHD        string `yaml:"eodhd"`
		AlphaVantage string `yaml:"alpha_vantage"`
		Finnhub      string `yaml:"finnhub"`
		Massive      string `yaml:"massive"`
		Marketaux    string `yaml:"marketaux"`
		Gemini       string `yaml:"gemini"`
		OpenAI       string `yaml:"openai"`
		Anthropic    string `yaml:"anthropic"`
	} `yaml:"keys"`
	Analysis struct {
		PriceLimit       int    `yaml:"price_limit"`
		NewsLimit        int    `yaml:"news_limit"`
		FallbackTimezone string `yaml:"fallback_timezone"`
	} `yaml:"analysis"`
	LogLevel string `yaml:"log_level"`
}

// Load reads .env (if present), then the YAML file at path (missing is
// fine), then environment overrides, then fills defaults. It does not
// validate.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "error", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.FrontendURL, "FRONTEND_URL")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Ingestion.Symbols = strings.Split(v, ",")
	}
	setString(&c.Ingestion.PriceSchedule, "PRICE_SCHEDULE")
	setString(&c.Ingestion.NewsSchedule, "NEWS_SCHEDULE")
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Ingestion.RunOnStart = b
		}
	}
	setString(&c.Providers.Quote, "QUOTE_PROVIDER")
	setString(&c.Providers.News, "NEWS_PROVIDER")
	setString(&c.Providers.History, "HISTORY_PROVIDER")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.RangeExtractor, "RANGE_EXTRACTOR")
	setString(&c.Keys.EODHD, "EODHD_API_KEY")
	setString(&c.Keys.AlphaVantage, "ALPHA_VANTAGE_API_KEY")
	setString(&c.Keys.Finnhub, "FINNHUB_API_KEY")
	setString(&c.Keys.Massive, "MASSIVE_API_KEY")
	setString(&c.Keys.Marketaux, "MARKETAUX_API_KEY")
	setString(&c.Keys.Gemini, "GEMINI_API_KEY")
	setString(&c.Keys.OpenAI, "OPENAI_API_KEY")
	setString(&c.Keys.Anthropic, "ANTHROPIC_API_KEY")
	setInt(&c.Analysis.PriceLimit, "ANALYSIS_PRICE_LIMIT")
	setInt(&c.Analysis.NewsLimit, "ANALYSIS_NEWS_LIMIT")
	setString(&c.Analysis.FallbackTimezone, "FALLBACK_TIMEZONE")
	setString(&c.LogLevel, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	c.Ingestion.Symbols = model.NormalizeSymbols(c.Ingestion.Symbols)
	if len(c.Ingestion.Symbols) == 0 {
		c.Ingestion.Symbols = []string{"AAPL"}
	}
	if c.Ingestion.PriceSchedule == "" {
		c.Ingestion.PriceSchedule = "@every 120m"
	}
	if c.Ingestion.NewsSchedule == "" {
		c.Ingestion.NewsSchedule = "@every 60m"
	}
	if c.Providers.Quote == "" {
		c.Providers.Quote = "eodhd"
	}
	if c.Providers.News == "" {
		c.Providers.News = "eodhd"
	}
	if c.Providers.History == "" {
		c.Providers.History = "eodhd"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if c.LLM.RangeExtractor == "" {
		c.LLM.RangeExtractor = "llm"
	}
	if c.Analysis.PriceLimit <= 0 {
		c.Analysis.PriceLimit = 30
	}
	if c.Analysis.NewsLimit <= 0 {
		c.Analysis.NewsLimit = 10
	}
	if c.Analysis.FallbackTimezone == "" {
		c.Analysis.FallbackTimezone = "America/New_York"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.Providers.Quote = strings.ToLower(c.Providers.Quote)
	c.Providers.News = strings.ToLower(c.Providers.News)
	c.Providers.History = strings.ToLower(c.Providers.History)
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	c.LLM.RangeExtractor = strings.ToLower(c.LLM.RangeExtractor)
}

// Validate checks required values and that every selected provider has a
// key. Schedules must parse as cron specs.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(c.Ingestion.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if _, err := cron.ParseStandard(c.Ingestion.PriceSchedule); err != nil {
		return fmt.Errorf("invalid price schedule %q: %w", c.Ingestion.PriceSchedule, err)
	}
	if _, err := cron.ParseStandard(c.Ingestion.NewsSchedule); err != nil {
		return fmt.Errorf("invalid news schedule %q: %w", c.Ingestion.NewsSchedule, err)
	}

	quoteKeys := map[string]string{
		"eodhd":        c.Keys.EODHD,
		"alphavantage": c.Keys.AlphaVantage,
		"finnhub":      c.Keys.Finnhub,
		"yahoo":        "-",
	}
	newsKeys := map[string]string{
		"eodhd":        c.Keys.EODHD,
		"alphavantage": c.Keys.AlphaVantage,
		"finnhub":      c.Keys.Finnhub,
		"massive":      c.Keys.Massive,
		"marketaux":    c.Keys.Marketaux,
		"rss":          "-",
	}
	historyKeys := map[string]string{
		"eodhd": c.Keys.EODHD,
		"yahoo": "-",
	}
	llmKeys := map[string]string{
		"gemini":    c.Keys.Gemini,
		"openai":    c.Keys.OpenAI,
		"anthropic": c.Keys.Anthropic,
		"none":      "-",
	}

	if err := checkProvider("quote", c.Providers.Quote, quoteKeys); err != nil {
		return err
	}
	if err := checkProvider("news", c.Providers.News, newsKeys); err != nil {
		return err
	}
	if err := checkProvider("history", c.Providers.History, historyKeys); err != nil {
		return err
	}
	if err := checkProvider("llm", c.LLM.Provider, llmKeys); err != nil {
		return err
	}

	switch c.LLM.RangeExtractor {
	case "llm", "pattern":
	default:
		return fmt.Errorf("unknown range extractor %q", c.LLM.RangeExtractor)
	}

	if _, err := time.LoadLocation(c.Analysis.FallbackTimezone); err != nil {
		return fmt.Errorf("invalid fallback timezone %q: %w", c.Analysis.FallbackTimezone, err)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func checkProvider(kind, name string, keys map[string]string) error {
	key, ok := keys[name]
	if !ok {
		return fmt.Errorf("unknown %s provider %q", kind, name)
	}
	if key == "" {
		return fmt.Errorf("%s provider %q needs an API key", kind, name)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
