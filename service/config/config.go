package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Cursor start modes.
const (
	CursorStartZero = "zero"
	CursorStartNow  = "now"
)

// Wallet is a watched wallet address with an optional display label.
type Wallet struct {
	Address string
	Label   string
}

// DisplayName returns the label if set, otherwise a shortened address.
func (w Wallet) DisplayName() string {
	if w.Label != "" {
		return w.Label
	}
	if len(w.Address) > 10 {
		return w.Address[:10]
	}
	return w.Address
}

// Config holds all application configuration loaded from environment variables.
// It is read once at startup and never mutated afterwards.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Watched wallets
	Wallets []Wallet

	// Telegram configuration
	TelegramBotToken    string
	TelegramChatID      string
	TelegramAPIEndpoint string

	// Polymarket configuration
	DataAPIURL    string
	GammaAPIURL   string
	ActivityLimit int
	HTTPTimeout   time.Duration

	// Polling configuration
	PollInterval time.Duration
	CursorStart  string

	// Filters
	ConditionIDs []string
	JQFilters    []string

	// NATS configuration (optional)
	NATSURL string
}

// Load reads configuration from environment variables and validates all required fields.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = os.Getenv("SERVER_ADDR")
	if _, set := os.LookupEnv("SERVER_ADDR"); !set {
		cfg.ServerAddr = ":8080"
	}
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Wallets
	wallets, err := ParseWallets(os.Getenv("WALLETS"))
	if err != nil {
		errs = append(errs, err)
	} else if len(wallets) == 0 {
		errs = append(errs, fmt.Errorf("WALLETS is required"))
	}
	cfg.Wallets = wallets

	// Telegram configuration
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.TelegramBotToken == "" {
		errs = append(errs, fmt.Errorf("TELEGRAM_BOT_TOKEN is required"))
	}
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	if cfg.TelegramChatID == "" {
		errs = append(errs, fmt.Errorf("TELEGRAM_CHAT_ID is required"))
	}
	cfg.TelegramAPIEndpoint = os.Getenv("TELEGRAM_API_ENDPOINT")

	// Polymarket configuration
	cfg.DataAPIURL = strings.TrimRight(getEnvOrDefault("DATA_API_URL", "https://data-api.polymarket.com"), "/")
	cfg.GammaAPIURL = strings.TrimRight(getEnvOrDefault("GAMMA_API_URL", "https://gamma-api.polymarket.com"), "/")

	limit, err := parseInt("ACTIVITY_LIMIT", 25)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ActivityLimit = limit
	}

	timeout, err := parseDuration("HTTP_TIMEOUT", "15s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.HTTPTimeout = timeout
	}

	// Polling configuration
	interval, err := parseDuration("POLL_INTERVAL", "10s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PollInterval = interval
	}
	cfg.CursorStart = getEnvOrDefault("CURSOR_START", CursorStartZero)

	// Filters
	cfg.ConditionIDs = splitList(os.Getenv("CONDITION_IDS"), ",")
	cfg.JQFilters = splitList(os.Getenv("ACTIVITY_JQ"), ";;")

	// NATS configuration
	cfg.NATSURL = os.Getenv("NATS_URL")

	if len(errs) == 0 {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Misconfiguration must halt startup before any polling loop starts.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Wallets) == 0 {
		errs = append(errs, fmt.Errorf("at least one wallet is required"))
	}

	for _, w := range c.Wallets {
		if !common.IsHexAddress(w.Address) {
			errs = append(errs, fmt.Errorf("invalid wallet address %q", w.Address))
		}
	}

	if c.TelegramBotToken == "" {
		errs = append(errs, fmt.Errorf("TelegramBotToken is required"))
	}

	if c.TelegramChatID == "" {
		errs = append(errs, fmt.Errorf("TelegramChatID is required"))
	}

	if c.DataAPIURL == "" {
		errs = append(errs, fmt.Errorf("DataAPIURL is required"))
	}

	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("PollInterval must be at least 1 second"))
	}

	if c.ActivityLimit < 1 || c.ActivityLimit > 500 {
		errs = append(errs, fmt.Errorf("ActivityLimit must be between 1 and 500, got %d", c.ActivityLimit))
	}

	if c.CursorStart != CursorStartZero && c.CursorStart != CursorStartNow {
		errs = append(errs, fmt.Errorf("CursorStart must be %q or %q, got %q", CursorStartZero, CursorStartNow, c.CursorStart))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// ParseWallets parses a comma-separated wallet list. Each entry is either a
// bare address or "label=address". Addresses are lower-cased and duplicates
// are dropped, keeping the first occurrence.
func ParseWallets(raw string) ([]Wallet, error) {
	var wallets []Wallet
	seen := make(map[string]struct{})

	for _, entry := range splitList(raw, ",") {
		var w Wallet
		if label, addr, ok := strings.Cut(entry, "="); ok {
			w.Label = strings.TrimSpace(label)
			w.Address = strings.TrimSpace(addr)
		} else {
			w.Address = entry
		}

		if !common.IsHexAddress(w.Address) {
			return nil, fmt.Errorf("WALLETS: invalid wallet address %q", w.Address)
		}
		w.Address = strings.ToLower(w.Address)

		if _, dup := seen[w.Address]; dup {
			continue
		}
		seen[w.Address] = struct{}{}
		wallets = append(wallets, w)
	}

	return wallets, nil
}

// splitList splits s by sep, trimming whitespace and dropping empty entries.
func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
