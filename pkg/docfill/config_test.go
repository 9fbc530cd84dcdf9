package docfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "<", config.OpenDelimiter)
	assert.Equal(t, ">", config.CloseDelimiter)
	assert.Equal(t, 4, config.MatchWindow)
	assert.False(t, config.AllowBreakInToken)
	assert.True(t, config.LineBreaks)
	assert.Equal(t, int64(64<<20), config.MaxPartSize)
}

func TestConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, config *Config)
	}{
		{
			name: "log level",
			envVars: map[string]string{
				"DOCFILL_LOG_LEVEL": " DEBUG ",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "debug", config.LogLevel)
			},
		},
		{
			name: "delimiters",
			envVars: map[string]string{
				"DOCFILL_OPEN_DELIMITER":  "{{",
				"DOCFILL_CLOSE_DELIMITER": "}}",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "{{", config.OpenDelimiter)
				assert.Equal(t, "}}", config.CloseDelimiter)
			},
		},
		{
			name: "match window",
			envVars: map[string]string{
				"DOCFILL_MATCH_WINDOW": "0",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 0, config.MatchWindow)
			},
		},
		{
			name: "invalid match window keeps default",
			envVars: map[string]string{
				"DOCFILL_MATCH_WINDOW": "many",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 4, config.MatchWindow)
			},
		},
		{
			name: "booleans",
			envVars: map[string]string{
				"DOCFILL_ALLOW_BREAK_IN_TOKEN": "yes",
				"DOCFILL_LINE_BREAKS":          "off",
			},
			check: func(t *testing.T, config *Config) {
				assert.True(t, config.AllowBreakInToken)
				assert.False(t, config.LineBreaks)
			},
		},
		{
			name: "human readable part size",
			envVars: map[string]string{
				"DOCFILL_MAX_PART_SIZE": "8MiB",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, int64(8<<20), config.MaxPartSize)
			},
		},
		{
			name: "plain part size",
			envVars: map[string]string{
				"DOCFILL_MAX_PART_SIZE": "1024",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, int64(1024), config.MaxPartSize)
			},
		},
		{
			name: "locale",
			envVars: map[string]string{
				"DOCFILL_LOCALE": "tr",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "tr", config.Locale)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			tt.check(t, ConfigFromEnvironment())
		})
	}
}

func TestNewConfigWithDefaults(t *testing.T) {
	t.Run("nil overrides", func(t *testing.T) {
		config := NewConfigWithDefaults(nil)
		assert.Equal(t, 4, config.MatchWindow)
		assert.Equal(t, "<", config.OpenDelimiter)
	})

	t.Run("partial overrides", func(t *testing.T) {
		config := NewConfigWithDefaults(&Config{LogLevel: "warn", MatchWindow: 2})
		assert.Equal(t, "warn", config.LogLevel)
		assert.Equal(t, 2, config.MatchWindow)
		assert.Equal(t, "<", config.OpenDelimiter)
		assert.Equal(t, ">", config.CloseDelimiter)
		assert.Equal(t, int64(64<<20), config.MaxPartSize)
		assert.False(t, config.LineBreaks, "booleans are taken as given")
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"off level", func(c *Config) { c.LogLevel = "off" }, false},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"empty delimiter", func(c *Config) { c.CloseDelimiter = "" }, true},
		{"whitespace delimiter", func(c *Config) { c.OpenDelimiter = "< " }, true},
		{"negative window", func(c *Config) { c.MatchWindow = -1 }, true},
		{"zero part size", func(c *Config) { c.MaxPartSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGlobalConfig(t *testing.T) {
	original := GetGlobalConfig()
	defer SetGlobalConfig(original)

	custom := DefaultConfig()
	custom.LogLevel = "error"
	custom.MatchWindow = 1
	SetGlobalConfig(custom)

	got := GetGlobalConfig()
	require.Equal(t, 1, got.MatchWindow)

	got.MatchWindow = 9
	assert.Equal(t, 1, GetGlobalConfig().MatchWindow, "GetGlobalConfig returned a shared instance")
	assert.Equal(t, LogError, GetLogger().Level())
}
