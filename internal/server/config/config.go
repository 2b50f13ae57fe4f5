// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "os"

// Config holds runtime settings for the filekeeper server.
//
// Fields:
//   - EndpointAddr: bind address of the HTTP endpoint.
//   - DataDir: root holding db.json, user/ and public/.
//   - TmpDir: where uploads are staged before being moved into place.
//   - LogLevel: debug, info, warn or error.
//   - MaxUploadSize: per-request body cap in bytes; 0 disables it.
type Config struct {
	EndpointAddr  string
	DataDir       string
	TmpDir        string
	LogLevel      string
	MaxUploadSize int64
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DataDir = "./data"
	c.TmpDir = os.TempDir()
	c.LogLevel = "info"
	c.MaxUploadSize = 0
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
