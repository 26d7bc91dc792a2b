package config

import "time"

// HostConfig holds the note-taking host application configuration
type HostConfig struct {
	BaseURL string        `env:"HOST_BASE_URL" yaml:"base_url" required:"true"`
	Timeout time.Duration `env:"HOST_TIMEOUT" yaml:"timeout" default:"15s"`
}
