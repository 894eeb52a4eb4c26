package gsi

import "time"

// ServerConfig configures the game-state ingest listener.
type ServerConfig struct {
	// Port to bind on loopback. The game posts its state here.
	Port int

	// AcceptTimeout bounds each accept wait so shutdown is noticed
	// promptly.
	AcceptTimeout time.Duration

	// ReadTimeout bounds reading one request from a client.
	ReadTimeout time.Duration
}

// DefaultServerConfig returns the shipped listener settings for a port.
func DefaultServerConfig(port int) ServerConfig {
	return ServerConfig{
		Port:          port,
		AcceptTimeout: 500 * time.Millisecond,
		ReadTimeout:   2 * time.Second,
	}
}
