package config

import "time"

// TimeoutConfig holds timeout settings for the HTTP server.
type TimeoutConfig struct {
	// Request bounds the handling of a single API request. Default: 30s
	Request time.Duration

	// Read is the time allowed to read a request. Default: 15s
	Read time.Duration

	// Idle is how long keep-alive connections stay open between requests.
	// Default: 120s
	Idle time.Duration

	// Shutdown is how long in-flight requests get to finish on exit.
	// Default: 30s
	Shutdown time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Request:  30 * time.Second,
		Read:     15 * time.Second,
		Idle:     120 * time.Second,
		Shutdown: 30 * time.Second,
	}
}

// LoadTimeouts reads "server.*" timeout settings, falling back to defaults
func LoadTimeouts(l *Loader) *TimeoutConfig {
	def := DefaultTimeoutConfig()
	return &TimeoutConfig{
		Request:  l.Duration("server.request_timeout", def.Request),
		Read:     l.Duration("server.read_timeout", def.Read),
		Idle:     l.Duration("server.idle_timeout", def.Idle),
		Shutdown: l.Duration("server.shutdown_timeout", def.Shutdown),
	}
}

// global instance that can be set at startup
var globalTimeouts = DefaultTimeoutConfig()

// SetGlobalTimeouts sets the global timeout configuration
func SetGlobalTimeouts(cfg *TimeoutConfig) {
	globalTimeouts = cfg
}

// GetTimeouts returns the global timeout configuration
func GetTimeouts() *TimeoutConfig {
	return globalTimeouts
}
