// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	DefaultEndpoint = "http://localhost:9411/api/v2/spans"
	DefaultAppName  = "symmem"

	tracerExportTimeout = 10 * time.Second
	// [tracerProviderShutdownTimeout] is longer than [tracerExportTimeout] so
	// in-flight exports can finish before the tracer provider shuts down.
	tracerProviderShutdownTimeout = 15 * time.Second
)

var ErrInvalidSampleRate = errors.New("trace sample rate must be in [0, 1]")

// Config selects how memory engine operations are traced. Each engine
// operation (lookup, alter, union, refinement check, ...) opens one span.
type Config struct {
	// Enabled turns on span export. Disabled engines still open spans on a
	// tracer that records nothing.
	Enabled bool `json:"enabled"`

	// TraceSampleRate is the fraction of engine operations whose spans are
	// kept, in [0, 1].
	TraceSampleRate float64 `json:"traceSampleRate"`

	// Endpoint is the zipkin collector URL. Empty means [DefaultEndpoint].
	Endpoint string `json:"endpoint"`

	// AppName is the service name spans are reported under. Empty means
	// [DefaultAppName].
	AppName string `json:"appName"`
	// Version tags every span with the version of the embedding program.
	Version string `json:"version"`
}

func (c *Config) appName() string {
	if len(c.AppName) == 0 {
		return DefaultAppName
	}
	return c.AppName
}

func (c *Config) endpoint() string {
	if len(c.Endpoint) == 0 {
		return DefaultEndpoint
	}
	return c.Endpoint
}

type tracer struct {
	oteltrace.Tracer

	tp *sdktrace.TracerProvider
}

func (t *tracer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), tracerProviderShutdownTimeout)
	defer cancel()
	return t.tp.Shutdown(ctx)
}

// New returns a tracer exporting sampled spans to the configured zipkin
// collector, or a tracer that records nothing if tracing is disabled.
func New(config *Config) (trace.Tracer, error) {
	if !config.Enabled {
		return Noop(config.appName()), nil
	}
	if config.TraceSampleRate < 0 || config.TraceSampleRate > 1 {
		return nil, ErrInvalidSampleRate
	}

	exporter, err := zipkin.New(config.endpoint())
	if err != nil {
		return nil, fmt.Errorf("failed to create zipkin exporter for %s: %w", config.endpoint(), err)
	}

	tracerProviderOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(tracerExportTimeout)),
		sdktrace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				attribute.String("version", config.Version),
				semconv.ServiceNameKey.String(config.appName()),
			),
		),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(config.TraceSampleRate)),
	}

	tracerProvider := sdktrace.NewTracerProvider(tracerProviderOpts...)
	return &tracer{
		Tracer: tracerProvider.Tracer(config.appName()),
		tp:     tracerProvider,
	}, nil
}
