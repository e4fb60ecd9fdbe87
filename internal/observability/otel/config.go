// Package otel provides OpenTelemetry tracing integration for packsmith.
// Disabled by default; enabled via --otel flag or PACKSMITH_OTEL=1.
package otel

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Protocol constants for OTLP exporters.
const (
	ProtocolHTTP = "otlphttp"
	ProtocolGRPC = "otlpgrpc"
)

// Environment variables that configure the exporter without touching
// command lines. The endpoint additionally falls back to the standard
// OTEL_EXPORTER_OTLP_ENDPOINT when unset.
const (
	EnvEnable   = "PACKSMITH_OTEL"
	EnvEndpoint = "PACKSMITH_OTEL_ENDPOINT"
	EnvProtocol = "PACKSMITH_OTEL_PROTOCOL"
	EnvInsecure = "PACKSMITH_OTEL_INSECURE"
	EnvSample   = "PACKSMITH_OTEL_SAMPLE"
)

// Config holds OTel initialization options.
type Config struct {
	Enabled     bool
	Endpoint    string  // e.g., "http://localhost:4318" or "localhost:4317"
	Protocol    string  // "otlphttp" or "otlpgrpc"
	Insecure    bool    // allow insecure connections (no TLS)
	ServiceName string  // default: "packsmith"
	SampleRatio float64 // 0..1, default: 1.0
}

// DefaultConfig returns a Config with safe defaults (OTel disabled).
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Protocol:    ProtocolHTTP,
		ServiceName: "packsmith",
		SampleRatio: 1.0,
	}
}

// EnvEnabled reports whether PACKSMITH_OTEL asks for tracing. Used as
// the default for the --otel flag so CI can enable tracing without
// touching command lines.
func EnvEnabled() bool {
	return os.Getenv(EnvEnable) == "1"
}

// ConfigFromEnv overlays the PACKSMITH_OTEL_* variables on the
// defaults. Unset variables leave the defaults alone; a bad sample
// ratio is an error rather than a silent fallback.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.Enabled = EnvEnabled()

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvProtocol); v != "" {
		cfg.Protocol = v
	}
	if v := os.Getenv(EnvInsecure); v != "" {
		cfg.Insecure = v == "1" || v == "true"
	}
	if v := os.Getenv(EnvSample); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("otel: %s=%q is not a number: %w", EnvSample, v, err)
		}
		cfg.SampleRatio = ratio
	}
	return cfg, nil
}

// Validate checks that the configuration is valid when OTel is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil // nothing to validate if disabled
	}

	switch c.Protocol {
	case ProtocolHTTP, ProtocolGRPC:
		// valid
	default:
		return errors.New("otel: protocol must be 'otlphttp' or 'otlpgrpc'")
	}

	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.New("otel: sample-ratio must be between 0 and 1")
	}

	return nil
}
