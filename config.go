// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds the middleware configuration, parsed from environment variables.
type Config struct {
	// SampleRate is the percentage of requests recording coverage.
	SampleRate float64 `env:"CODECOV_SAMPLE_RATE" envDefault:"0" validate:"gte=0,lte=100"`

	// LineExecution enables coverage recording of sampled requests.
	LineExecution bool `env:"CODECOV_TAGS_LINE_EXECUTION" envDefault:"true"`

	// Codec is the structured encoding of coverage snapshots: json or msgpack.
	Codec string `env:"CODECOV_CODEC" envDefault:"json" validate:"oneof=json msgpack"`

	// CoverageWait is how long a sampled request waits for an ongoing coverage session.
	CoverageWait time.Duration `env:"CODECOV_COVERAGE_WAIT" envDefault:"100ms" validate:"gte=0s"`

	// IncludeMeta attaches coverage meta-data to spans, not only its hash.
	IncludeMeta bool `env:"CODECOV_INCLUDE_META" envDefault:"true"`

	// SkipPaths are request paths not traced, comma separated.
	SkipPaths []string `env:"CODECOV_SKIP_PATHS" envSeparator:","`
}

// Validate is the validator instance used for configuration.
var Validate *validator.Validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig parses configuration from environment variables and validates it.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if err := Validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
