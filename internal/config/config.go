package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LCU      LCUConfig      `yaml:"lcu"`
	WebAPI   WebAPIConfig   `yaml:"web_api"`
	Settings SettingsConfig `yaml:"settings"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// LCUConfig holds the timings for the local client connection. Each timeout
// is local to one operation; nothing composes them into a global deadline.
type LCUConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type WebAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SettingsConfig struct {
	Path string `yaml:"path"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7710,
			Host: "127.0.0.1",
		},
		LCU: LCUConfig{
			PollInterval:   2 * time.Second,
			ProbeTimeout:   2 * time.Second,
			RequestTimeout: 5 * time.Second,
			ReconnectDelay: 3 * time.Second,
		},
		WebAPI: WebAPIConfig{
			BaseURL: "https://midorfeed.gg",
			Timeout: 10 * time.Second,
		},
		Settings: SettingsConfig{
			Path: "settings.yaml",
		},
	}
}

// Load reads the yaml config at path over compiled-in defaults. A missing
// file is not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies environment overrides. COMPANION_WEB_API_URL changes the
// remote pass-through target without touching the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("COMPANION_WEB_API_URL"); v != "" {
		c.WebAPI.BaseURL = v
	}
}
