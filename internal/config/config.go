// Package config loads runtime configuration for the CareQueue core.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Data    DataConfig    `mapstructure:"data"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type SyncConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	CoolDown       time.Duration `mapstructure:"cool_down"`
	RetryCeiling   int           `mapstructure:"retry_ceiling"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	ProbeInterval  time.Duration `mapstructure:"probe_interval"`
}

type ServerConfig struct {
	// ListenAddr serves /ws, /metrics and /healthz for the embedding UI.
	ListenAddr string `mapstructure:"listen_addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults() {
	viper.SetDefault("backend.base_url", "http://localhost:8000")
	viper.SetDefault("backend.request_timeout", 10*time.Second)
	viper.SetDefault("data.dir", "./data")
	viper.SetDefault("sync.interval", 30*time.Second)
	viper.SetDefault("sync.cool_down", 10*time.Second)
	viper.SetDefault("sync.retry_ceiling", 5)
	viper.SetDefault("sync.attempt_timeout", 10*time.Second)
	viper.SetDefault("sync.probe_interval", 15*time.Second)
	viper.SetDefault("server.listen_addr", "localhost:8090")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
}

// Load reads config.yaml (working directory or ./config) overlaid with
// CAREQ_* environment variables. A missing config file is not an error;
// defaults and environment cover every key.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("CAREQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
