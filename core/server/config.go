package server

import "strings"

// Config holds configuration for the operator status server.
type Config struct {
	// Enabled starts the status server alongside the ingestion loop.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Host is the interface to bind; empty binds all interfaces.
	Host string `mapstructure:"host" default:""`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the status API.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Address returns the listen address in host:port form.
func (c Config) Address() string {
	port := strings.TrimPrefix(c.Port, ":")
	if port == "" {
		port = "8080"
	}
	return c.Host + ":" + port
}
