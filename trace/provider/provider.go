// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

// Package provider sets up the OpenTelemetry tracer provider spans of the middleware are exported by.
package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// UnsetFraction tells that sampling is left to OTEL_TRACES_SAMPLER(_ARG) environment variables.
const UnsetFraction = float64(-32.0)

// Config tells where and how spans are exported.
// If neither endpoint is set, then spans are not exported.
// You may fine-tune batch exporting parameters with OTEL_BSP_* environment variables.
type Config struct {
	Endpoint       string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracesEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	// ServiceName defaults to the name of the executable.
	ServiceName string `env:"OTEL_SERVICE_NAME"`

	// Fraction tells the fraction of traces to export, unless the parent is sampled.
	//   - Zero means no sampling.
	//   - Greater or equal 1 means sampling all the traces.
	//   - Else the sampling fraction, e.g. 0.01 for 1%.
	Fraction float64 `env:"COVTRACE_TRACE_FRACTION" envDefault:"-32"`
}

// LoadConfig parses configuration from environment variables.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse trace config: %w", err)
	}
	return cfg, nil
}

// Target returns the collector address, or empty string if export is not configured.
func (c Config) Target() string {
	if c.TracesEndpoint != "" {
		return c.TracesEndpoint
	}
	return c.Endpoint
}

func (c Config) serviceName() string {
	if c.ServiceName != "" {
		return c.ServiceName
	}
	return filepath.Base(os.Args[0])
}

func ensureScheme(target string) string {
	if strings.Contains(target, "://") {
		return target
	}

	// Add something. The exact scheme (grpc, https, http or even dns) is not important, it seems.
	return "http://" + target
}

// New creates a tracer provider exporting to the OTLP gRPC collector of cfg.
// Port is 4317, unless defined otherwise in target, e.g. "http://localhost:4317".
// Returns nil provider and no error if export is not configured.
func New(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	target := cfg.Target()
	if target == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(cfg.serviceName())))
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(ensureScheme(target)))
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	}
	if cfg.Fraction != UnsetFraction {
		opts = append(opts, sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Fraction))))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// Install makes tp the global tracer provider, and sets W3C and B3 propagation.
func Install(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, b3.New(), b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader))))
}
