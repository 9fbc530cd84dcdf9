package docfill

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Config contains all configuration options for the docfill engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// OpenDelimiter and CloseDelimiter surround token names in templates
	OpenDelimiter  string
	CloseDelimiter string
	// MatchWindow is the maximum whitespace padding tolerated between a
	// delimiter and a token name when no exact occurrence exists. 0 disables it.
	MatchWindow int
	// AllowBreakInToken lets a token span a paragraph or line break
	AllowBreakInToken bool
	// LineBreaks writes newlines in values as explicit break elements
	LineBreaks bool
	// MaxPartSize is the largest eligible part, in bytes, a call will load
	MaxPartSize int64
	// Locale is the language used for case transforms. Empty means the
	// registry locale, then French.
	Locale string
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		OpenDelimiter:     "<",
		CloseDelimiter:    ">",
		MatchWindow:       4,
		AllowBreakInToken: false,
		LineBreaks:        true,
		MaxPartSize:       64 << 20,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// DOCFILL_LOG_LEVEL
	if val := os.Getenv("DOCFILL_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	// DOCFILL_OPEN_DELIMITER / DOCFILL_CLOSE_DELIMITER
	if val := os.Getenv("DOCFILL_OPEN_DELIMITER"); val != "" {
		config.OpenDelimiter = val
	}
	if val := os.Getenv("DOCFILL_CLOSE_DELIMITER"); val != "" {
		config.CloseDelimiter = val
	}

	// DOCFILL_MATCH_WINDOW
	if val := os.Getenv("DOCFILL_MATCH_WINDOW"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.MatchWindow = n
		}
	}

	// DOCFILL_ALLOW_BREAK_IN_TOKEN
	if val := os.Getenv("DOCFILL_ALLOW_BREAK_IN_TOKEN"); val != "" {
		config.AllowBreakInToken = parseBool(val)
	}

	// DOCFILL_LINE_BREAKS
	if val := os.Getenv("DOCFILL_LINE_BREAKS"); val != "" {
		config.LineBreaks = parseBool(val)
	}

	// DOCFILL_MAX_PART_SIZE accepts plain byte counts or sizes such as "64MiB"
	if val := os.Getenv("DOCFILL_MAX_PART_SIZE"); val != "" {
		if size, err := humanize.ParseBytes(val); err == nil {
			config.MaxPartSize = int64(size)
		}
	}

	// DOCFILL_LOCALE
	if val := os.Getenv("DOCFILL_LOCALE"); val != "" {
		config.Locale = val
	}

	return config
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields.
// Boolean fields are taken from overrides as they are.
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.OpenDelimiter == "" {
		config.OpenDelimiter = defaults.OpenDelimiter
	}
	if config.CloseDelimiter == "" {
		config.CloseDelimiter = defaults.CloseDelimiter
	}
	if config.MaxPartSize == 0 {
		config.MaxPartSize = defaults.MaxPartSize
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.OpenDelimiter == "" || c.CloseDelimiter == "" {
		return errors.New("delimiters cannot be empty")
	}
	if strings.IndexFunc(c.OpenDelimiter+c.CloseDelimiter, unicode.IsSpace) >= 0 {
		return errors.New("delimiters cannot contain whitespace")
	}

	if c.MatchWindow < 0 {
		return errors.New("match window cannot be negative")
	}

	if c.MaxPartSize <= 0 {
		return fmt.Errorf("max part size must be positive, got %d", c.MaxPartSize)
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
