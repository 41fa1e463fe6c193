package apm_test

import (
	"testing"

	"github.com/fd1az/fba-sourcing/internal/apm"
)

func TestParseProvider(t *testing.T) {
	tests := map[string]apm.Provider{
		"zipkin":     apm.ZipkinProvider,
		" OTLP-GRPC": apm.OTLPGRPCProvider,
		"otlp-http":  apm.OTLPHTTPProvider,
		"console":    apm.ConsoleProvider,
		"newrelic":   apm.EmptyProvider,
		"":           apm.EmptyProvider,
	}
	for in, want := range tests {
		if got := apm.ParseProvider(in); got != want {
			t.Errorf("ParseProvider(%q) = %s, want %s", in, got, want)
		}
	}
}
