package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Backend  BackendConfig  `yaml:"backend"`
	Location LocationConfig `yaml:"location"`
	Timers   TimerConfig    `yaml:"timers"`
	Server   ServerConfig   `yaml:"server"`
}

type BackendConfig struct {
	// Base URL of the remote Music Radar API
	BaseURL string `yaml:"base_url"`

	RequestTimeoutMS int `yaml:"request_timeout_ms"`
}

type LocationConfig struct {
	// Coordinate used when geolocation fails or is unavailable
	FallbackLat float64 `yaml:"fallback_lat"`
	FallbackLng float64 `yaml:"fallback_lng"`
}

type TimerConfig struct {
	NearbyPollMS   int `yaml:"nearby_poll_ms"`
	PlaybackTickMS int `yaml:"playback_tick_ms"`
	ChatReplyMS    int `yaml:"chat_reply_ms"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(config)
	return config, nil
}

// Default returns a config with all defaults applied, for callers that run
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(config *Config) {
	if config.Backend.BaseURL == "" {
		config.Backend.BaseURL = "https://music-radar-api.fly.dev"
	}
	if config.Backend.RequestTimeoutMS == 0 {
		config.Backend.RequestTimeoutMS = 10000
	}
	if config.Location.FallbackLat == 0 && config.Location.FallbackLng == 0 {
		// Tokyo station
		config.Location.FallbackLat = 35.6812
		config.Location.FallbackLng = 139.7671
	}
	if config.Timers.NearbyPollMS == 0 {
		config.Timers.NearbyPollMS = 5000
	}
	if config.Timers.PlaybackTickMS == 0 {
		config.Timers.PlaybackTickMS = 1000
	}
	if config.Timers.ChatReplyMS == 0 {
		config.Timers.ChatReplyMS = 1500
	}
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
}

func (b BackendConfig) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutMS) * time.Millisecond
}

func (t TimerConfig) NearbyPoll() time.Duration {
	return time.Duration(t.NearbyPollMS) * time.Millisecond
}

func (t TimerConfig) PlaybackTick() time.Duration {
	return time.Duration(t.PlaybackTickMS) * time.Millisecond
}

func (t TimerConfig) ChatReply() time.Duration {
	return time.Duration(t.ChatReplyMS) * time.Millisecond
}
