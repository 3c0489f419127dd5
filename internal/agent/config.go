// Package agent implements the sampling agent: periodic resource sampling
// via gopsutil and a retrying HTTP sender pointed at the collector.
package agent

import (
	"os"
	"strconv"
	"time"
)

// Config holds the agent's environment-driven settings.
type Config struct {
	ServerURL    string        // collector base URL
	MachineID    string        // partition key; defaults to the hostname
	Interval     time.Duration // sampling period
	MaxRetries   int           // retry attempts per send after the first
	RetryBackoff time.Duration // linear backoff base: attempt N waits N*backoff
	MaxOffline   time.Duration // fail-stop threshold with no server contact
	Verbose      bool
}

func LoadConfig() *Config {
	machineID := os.Getenv("AGENT_MACHINE_ID")
	if machineID == "" {
		if host, err := os.Hostname(); err == nil {
			machineID = host
		} else {
			machineID = "unknown"
		}
	}

	maxRetries, _ := strconv.Atoi(getEnv("AGENT_MAX_RETRIES", "3"))
	verbose, _ := strconv.ParseBool(getEnv("AGENT_VERBOSE", "false"))

	return &Config{
		ServerURL:    getEnv("AGENT_SERVER_URL", "http://localhost:8080"),
		MachineID:    machineID,
		Interval:     getDuration("AGENT_INTERVAL", 30*time.Second),
		MaxRetries:   maxRetries,
		RetryBackoff: getDuration("AGENT_RETRY_BACKOFF", 2*time.Second),
		MaxOffline:   getDuration("AGENT_MAX_OFFLINE", 10*time.Minute),
		Verbose:      verbose,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
