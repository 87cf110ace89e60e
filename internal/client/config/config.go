package config

import "time"

// Config holds runtime settings for the ontop client.
type Config struct {
	ServerURL           string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	RequestTimeout      time.Duration
	LocalDBPath         string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 5 * time.Minute
	c.RequestTimeout = 10 * time.Second
	c.LocalDBPath = "ontop-client.db"
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
