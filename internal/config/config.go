package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/internal/llm"
	"github.com/MimeLyc/llsub/internal/subtitle"
	"github.com/MimeLyc/llsub/pkg/log"
)

// Config holds all application configuration.
// Values are layered: defaults, then the TOML config file, then environment
// variables, then Options (command line flags).
//
// Environment Variables:
// Translation:
// - LLSUB_TARGET_LANGUAGE: target language tag (default: en)
// - LLSUB_BACKEND: google or llm (default: google)
// - LLSUB_BATCH_SIZE: cues per backend request (default: 50)
// - LLSUB_MAX_BATCH_CHARS: characters per backend request (default: 5000)
// - LLSUB_CONCURRENCY: backend requests in flight (default: 1)
// - LLSUB_MERGE_STYLE: stacked or interleaved (default: stacked)
// - LLSUB_TERM_MAP: glossary JSON file for the llm backend (optional)
//
// Translation memory:
// - LLSUB_CACHE_PATH: SQLite file, empty disables the cache
// - LLSUB_CACHE_TTL_DAYS: prune entries older than this, 0 keeps them (default: 0)
//
// Google:
// - GOOGLE_TRANSLATE_API_KEY: Cloud Translation API key
//
// LLM:
// - LLM_API_KEY, LLM_API_URL, LLM_MODEL, LLM_MAX_TOKENS, LLM_TEMPERATURE,
//   LLM_TIMEOUT, LLM_SITE_URL, LLM_APP_NAME
//
// Watch mode:
// - WATCH_DIRS: comma separated directories to scan
// - CRON_EXPR: scan schedule (default: */10 * * * *)
//
// Logging:
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - LOG_FILE: also append logs to this file (optional)
type Config struct {
	Translate TranslateConfig `toml:"translate"`
	Google    GoogleConfig    `toml:"google"`
	LLM       LLMConfig       `toml:"llm"`
	Cache     CacheConfig     `toml:"cache"`
	Watch     WatchConfig     `toml:"watch"`
	Log       LogConfig       `toml:"log"`

	// invalidTarget holds an LLSUB_TARGET_LANGUAGE value that did not parse.
	invalidTarget string
}

const (
	BackendGoogle = "google"
	BackendLLM    = "llm"
)

type TranslateConfig struct {
	TargetLanguage language.Tag `toml:"target_language"`
	Backend        string       `toml:"backend"`
	BatchSize      int          `toml:"batch_size"`
	MaxBatchChars  int          `toml:"max_batch_chars"`
	Concurrency    int          `toml:"concurrency"`
	MergeStyle     string       `toml:"merge_style"`
	TermMapPath    string       `toml:"term_map"`
}

type GoogleConfig struct {
	APIKey string `toml:"api_key"`
}

// LLMConfig holds the configuration for LLM client
// Supports any OpenAI compatible provider (OpenRouter, OpenAI, local servers)
type LLMConfig struct {
	APIKey      string  `toml:"api_key"`
	APIURL      string  `toml:"api_url"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	Timeout     int     `toml:"timeout"`
	SiteURL     string  `toml:"site_url"`
	AppName     string  `toml:"app_name"`
}

// ClientConfig converts to the llm package configuration.
func (c LLMConfig) ClientConfig() *llm.Config {
	return &llm.Config{
		APIKey:      c.APIKey,
		APIURL:      c.APIURL,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
		SiteURL:     c.SiteURL,
		AppName:     c.AppName,
	}
}

type CacheConfig struct {
	Path    string `toml:"path"`
	TTLDays int    `toml:"ttl_days"`
}

type WatchConfig struct {
	Dirs     []string `toml:"dirs"`
	CronExpr string   `toml:"cron_expr"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

func WithTargetLanguage(tag language.Tag) Option {
	return func(c *Config) {
		c.Translate.TargetLanguage = tag
		c.invalidTarget = ""
	}
}

func WithBackend(backend string) Option {
	return func(c *Config) {
		if backend != "" {
			c.Translate.Backend = backend
		}
	}
}

func WithMergeStyle(style string) Option {
	return func(c *Config) {
		if style != "" {
			c.Translate.MergeStyle = style
		}
	}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Translate: TranslateConfig{
			TargetLanguage: language.English,
			Backend:        BackendGoogle,
			BatchSize:      50,
			MaxBatchChars:  5000,
			Concurrency:    1,
			MergeStyle:     string(subtitle.StyleStacked),
		},
		LLM: LLMConfig{
			APIURL:      "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4o-mini",
			MaxTokens:   8000,
			Temperature: 0.3,
			Timeout:     60,
			AppName:     "llsub",
		},
		Watch: WatchConfig{
			CronExpr: "*/10 * * * *",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win; missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Warn("Failed to load %s: %v", path, err)
		}
	}
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := Default()
	return finish(&config, opts)
}

func finish(config *Config, opts []Option) (*Config, error) {
	config.applyEnv()

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: backend=%s target=%s batch=%d/%d chars concurrency=%d cache=%q",
		config.Translate.Backend, config.Translate.TargetLanguage,
		config.Translate.BatchSize, config.Translate.MaxBatchChars,
		config.Translate.Concurrency, config.Cache.Path)
	return config, nil
}

func (c *Config) applyEnv() {
	if value := getEnvString("LLSUB_TARGET_LANGUAGE", ""); value != "" {
		if tag, err := language.Parse(value); err == nil {
			c.Translate.TargetLanguage = tag
		} else {
			c.invalidTarget = value
		}
	}
	c.Translate.Backend = getEnvString("LLSUB_BACKEND", c.Translate.Backend)
	c.Translate.BatchSize = getEnvInt("LLSUB_BATCH_SIZE", c.Translate.BatchSize)
	c.Translate.MaxBatchChars = getEnvInt("LLSUB_MAX_BATCH_CHARS", c.Translate.MaxBatchChars)
	c.Translate.Concurrency = getEnvInt("LLSUB_CONCURRENCY", c.Translate.Concurrency)
	c.Translate.MergeStyle = getEnvString("LLSUB_MERGE_STYLE", c.Translate.MergeStyle)
	c.Translate.TermMapPath = getEnvString("LLSUB_TERM_MAP", c.Translate.TermMapPath)

	c.Google.APIKey = getEnvString("GOOGLE_TRANSLATE_API_KEY", c.Google.APIKey)

	c.LLM.APIKey = getEnvString("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.APIURL = getEnvString("LLM_API_URL", c.LLM.APIURL)
	c.LLM.Model = getEnvString("LLM_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvInt("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.SiteURL = getEnvString("LLM_SITE_URL", c.LLM.SiteURL)
	c.LLM.AppName = getEnvString("LLM_APP_NAME", c.LLM.AppName)

	c.Cache.Path = getEnvString("LLSUB_CACHE_PATH", c.Cache.Path)
	c.Cache.TTLDays = getEnvInt("LLSUB_CACHE_TTL_DAYS", c.Cache.TTLDays)

	c.Watch.Dirs = getEnvList("WATCH_DIRS", c.Watch.Dirs)
	c.Watch.CronExpr = getEnvString("CRON_EXPR", c.Watch.CronExpr)

	c.Log.Level = getEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnvString("LOG_FILE", c.Log.File)
}

func (c *Config) normalize() {
	c.Translate.Backend = strings.ToLower(strings.TrimSpace(c.Translate.Backend))
	c.Translate.MergeStyle = strings.ToLower(strings.TrimSpace(c.Translate.MergeStyle))
	c.Watch.CronExpr = strings.TrimSpace(c.Watch.CronExpr)
	for i, dir := range c.Watch.Dirs {
		if expanded, err := expandPath(dir); err == nil {
			c.Watch.Dirs[i] = expanded
		}
	}
	if expanded, err := expandPath(c.Cache.Path); err == nil {
		c.Cache.Path = expanded
	}
	if expanded, err := expandPath(c.Translate.TermMapPath); err == nil {
		c.Translate.TermMapPath = expanded
	}
}

// Validate checks if all required configuration is properly set
func (c *Config) Validate() error {
	if c.invalidTarget != "" {
		return fmt.Errorf("invalid LLSUB_TARGET_LANGUAGE %q: not a BCP 47 language tag", c.invalidTarget)
	}
	if c.Translate.TargetLanguage == language.Und {
		return fmt.Errorf("target language is required")
	}
	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("LLSUB_BATCH_SIZE must be positive, got %d", c.Translate.BatchSize)
	}
	if c.Translate.MaxBatchChars <= 0 {
		return fmt.Errorf("LLSUB_MAX_BATCH_CHARS must be positive, got %d", c.Translate.MaxBatchChars)
	}
	if c.Translate.Concurrency <= 0 {
		return fmt.Errorf("LLSUB_CONCURRENCY must be positive, got %d", c.Translate.Concurrency)
	}
	if _, err := subtitle.ParseMergeStyle(c.Translate.MergeStyle); err != nil {
		return fmt.Errorf("invalid LLSUB_MERGE_STYLE: %w", err)
	}
	if c.Cache.TTLDays < 0 {
		return fmt.Errorf("LLSUB_CACHE_TTL_DAYS must not be negative, got %d", c.Cache.TTLDays)
	}
	if c.Watch.CronExpr != "" {
		if _, err := cron.ParseStandard(c.Watch.CronExpr); err != nil {
			return fmt.Errorf("invalid CRON_EXPR: %w", err)
		}
	}

	switch c.Translate.Backend {
	case BackendGoogle:
		if c.Google.APIKey == "" {
			return fmt.Errorf("GOOGLE_TRANSLATE_API_KEY is required for the google backend")
		}
	case BackendLLM:
		if err := c.LLM.ClientConfig().Validate(); err != nil {
			return fmt.Errorf("invalid LLM configuration: %w", err)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Translate.Backend, BackendGoogle, BackendLLM)
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn("Ignoring %s=%q: not an integer", key, value)
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn("Ignoring %s=%q: not a number", key, value)
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
