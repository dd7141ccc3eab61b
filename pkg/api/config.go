package api

import "time"

// APIConfig holds configuration for the status HTTP server.
type APIConfig struct {
	// Host is the interface to bind to.
	Host string

	// Port is the TCP port to listen on.
	Port int

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	IdleTimeout time.Duration
}

// applyDefaults fills in zero-valued fields with sensible defaults.
func (c *APIConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8718
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}
