package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment.
type Config struct {
	// WekanHost is the base URL of the remote Wekan instance, e.g.
	// "http://wekan.local". Required.
	WekanHost string
	// Port the GraphQL server listens on.
	Port string
	// LogLevel is a logrus level name.
	LogLevel string
	// CORSOrigins is the allowed-origins list, comma-separated in the
	// environment.
	CORSOrigins []string
}

// LoadConfig reads the configuration from the environment with defaults for
// everything but the Wekan host.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("port", "4000")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "*")
	v.AutomaticEnv()

	host := strings.TrimRight(v.GetString("wekan_host"), "/")
	if host == "" {
		return nil, errors.New("WEKAN_HOST must be set")
	}

	return &Config{
		WekanHost:   host,
		Port:        v.GetString("port"),
		LogLevel:    v.GetString("log_level"),
		CORSOrigins: strings.Split(v.GetString("cors_origins"), ","),
	}, nil
}
