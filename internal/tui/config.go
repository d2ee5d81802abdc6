package tui

import (
	"time"

	"github.com/Veraticus/autobudget/internal/header"
	"github.com/Veraticus/autobudget/internal/loader"
	"github.com/Veraticus/autobudget/internal/tui/themes"
)

// Config holds TUI configuration shared by all screens.
type Config struct {
	Theme     themes.Theme
	Header    *header.Provider
	Guard     *loader.Guard
	Now       func() time.Time
	StatusTTL time.Duration
	Width     int
	Height    int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Now:       time.Now,
		StatusTTL: 4 * time.Second,
		Width:     100,
		Height:    30,
	}
}

func newConfig(title string, opts []Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Header == nil {
		cfg.Header = header.NewProvider(title)
	}
	if cfg.Guard == nil {
		cfg.Guard = loader.NewGuard()
	}
	return cfg
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithHeader injects the page title broadcaster.
func WithHeader(p *header.Provider) Option {
	return func(c *Config) {
		c.Header = p
	}
}

// WithGuard injects the request generation guard.
func WithGuard(g *loader.Guard) Option {
	return func(c *Config) {
		c.Guard = g
	}
}

// WithClock overrides the clock used for date presets.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithStatusTTL sets how long transient status messages stay visible.
func WithStatusTTL(d time.Duration) Option {
	return func(c *Config) {
		c.StatusTTL = d
	}
}
