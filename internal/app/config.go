package app

import "errors"

// Config holds everything an App needs that does not come from the
// configuration files themselves.
type Config struct {
	ConfigPaths []string // hcl files or directories

	LogFormat string
	LogLevel  string

	// Port overrides server.port when greater than zero.
	Port int
	// Watch reloads the configuration when a file under ConfigPaths changes.
	Watch bool
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, errors.New("port must be between 0 and 65535")
	}
	return &cfg, nil
}
