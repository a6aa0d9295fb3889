package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:       "8000",
		Env:        "development",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		DBDriver:   "postgres",
		DBPassword: "secure-password",
		DBSSLMode:  "require",
		SiteURL:    "http://localhost:8000",
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development", func(_ *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"Sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Negative page size", func(c *Config) { c.PageSize = -1 }, true},
		{"Production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"Production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"Production weak db password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"Production ssl disabled", func(c *Config) { c.Env = "production"; c.DBSSLMode = "disable" }, true},
		{"Production sqlite ignores db password", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite"; c.DBPassword = "" }, false},
		{"Production valid", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_AbsoluteURL(t *testing.T) {
	t.Parallel()
	c := &Config{SiteURL: "https://blog.example.com/"}
	assert.Equal(t, "https://blog.example.com/post/1.html", c.AbsoluteURL("/post/1.html"))
	assert.Equal(t, "https://blog.example.com/rss/", c.AbsoluteURL("rss/"))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PAGE_SIZE", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 7, cfg.PageSize)
	assert.Equal(t, "@LukeBlog", cfg.WatermarkText)
	assert.Equal(t, 10, cfg.APIPageSize)
}
