// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xataio/tabmap/internal/backoff"
	"github.com/xataio/tabmap/pkg/mappings/file"
	"github.com/xataio/tabmap/pkg/mappings/postgres"
	"github.com/xataio/tabmap/pkg/otel"
	"github.com/xataio/tabmap/pkg/pipeline"
	"github.com/xataio/tabmap/pkg/transformers"
	"gopkg.in/yaml.v3"
)

// YAMLConfig is decoded straight from the YAML file rather than through
// viper, which lowercases map keys and would alter the column names used in
// transformer parameters and mappings.
type YAMLConfig struct {
	Transformers    []TransformerConfig    `mapstructure:"transformers" yaml:"transformers"`
	Mappings        *MappingsConfig        `mapstructure:"mappings" yaml:"mappings"`
	Concurrency     int                    `mapstructure:"concurrency" yaml:"concurrency"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
}

type TransformerConfig struct {
	Name       string         `mapstructure:"name" yaml:"name"`
	Type       string         `mapstructure:"type" yaml:"type"`
	Parameters map[string]any `mapstructure:"parameters" yaml:"parameters"`
}

type MappingsConfig struct {
	Inline   map[string]any          `mapstructure:"inline" yaml:"inline"`
	Files    []MappingsFileConfig    `mapstructure:"files" yaml:"files"`
	Postgres *PostgresMappingsConfig `mapstructure:"postgres" yaml:"postgres"`
}

type MappingsFileConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	JSONPath string `mapstructure:"json_path" yaml:"json_path"`
}

type PostgresMappingsConfig struct {
	URL       string         `mapstructure:"url" yaml:"url"`
	Table     string         `mapstructure:"table" yaml:"table"`
	Columns   []string       `mapstructure:"columns" yaml:"columns"`
	ValueType string         `mapstructure:"value_type" yaml:"value_type"`
	Backoff   *BackoffConfig `mapstructure:"backoff" yaml:"backoff"`
}

type BackoffConfig struct {
	Exponential *ExponentialBackoffConfig `mapstructure:"exponential" yaml:"exponential"`
	Constant    *ConstantBackoffConfig    `mapstructure:"constant" yaml:"constant"`
}

type ExponentialBackoffConfig struct {
	MaxRetries      int `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval int `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     int `mapstructure:"max_interval" yaml:"max_interval"`
}

type ConstantBackoffConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	Interval   int `mapstructure:"interval" yaml:"interval"`
}

type InstrumentationConfig struct {
	Metrics *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces  *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint           string `mapstructure:"endpoint" yaml:"endpoint"`
	CollectionInterval int    `mapstructure:"collection_interval" yaml:"collection_interval"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

var (
	errMissingTransformerType = errors.New("transformer type is required")
	errMissingPostgresURL     = errors.New("postgres mappings url is required")
	errMissingMappingsPath    = errors.New("mappings file path is required")
)

func readYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading yaml config: %w", err)
	}
	cfg := &YAMLConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling yaml config: %w", err)
	}
	return cfg, nil
}

func (c *YAMLConfig) toPipelineConfig() (*pipeline.Config, error) {
	cfg := &pipeline.Config{
		Concurrency: c.Concurrency,
	}

	for i, t := range c.Transformers {
		if t.Type == "" {
			return nil, fmt.Errorf("transformer %d: %w", i, errMissingTransformerType)
		}
		cfg.Transformers = append(cfg.Transformers, pipeline.TransformerConfig{
			Name:       t.Name,
			Type:       transformers.TransformerType(t.Type),
			Parameters: t.Parameters,
		})
	}

	var err error
	cfg.Mappings, err = c.Mappings.parseMappingsConfig()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *MappingsConfig) parseMappingsConfig() (pipeline.MappingsConfig, error) {
	if c == nil {
		return pipeline.MappingsConfig{}, nil
	}

	inline, err := transformers.ParseMappings(c.Inline)
	if err != nil {
		return pipeline.MappingsConfig{}, fmt.Errorf("parsing inline mappings: %w", err)
	}

	cfg := pipeline.MappingsConfig{
		Inline: inline,
	}
	for _, f := range c.Files {
		if f.Path == "" {
			return pipeline.MappingsConfig{}, errMissingMappingsPath
		}
		cfg.Files = append(cfg.Files, file.Config{
			Path:     f.Path,
			JSONPath: f.JSONPath,
		})
	}

	if c.Postgres != nil {
		if c.Postgres.URL == "" {
			return pipeline.MappingsConfig{}, errMissingPostgresURL
		}
		cfg.Postgres = &postgres.Config{
			URL:       c.Postgres.URL,
			Table:     c.Postgres.Table,
			Columns:   c.Postgres.Columns,
			ValueType: postgres.ValueType(c.Postgres.ValueType),
			Backoff:   c.Postgres.Backoff.parseBackoffConfig(),
		}
	}
	return cfg, nil
}

func (c *YAMLConfig) toOtelConfig() (*otel.Config, error) {
	if c.Instrumentation == nil {
		return &otel.Config{}, nil
	}

	cfg := &otel.Config{}
	if m := c.Instrumentation.Metrics; m != nil {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           m.Endpoint,
			CollectionInterval: time.Duration(m.CollectionInterval) * time.Second,
		}
	}
	if t := c.Instrumentation.Traces; t != nil {
		if t.SampleRatio < 0 || t.SampleRatio > 1 {
			return nil, fmt.Errorf("invalid traces sample ratio %v, must be between 0 and 1", t.SampleRatio)
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    t.Endpoint,
			SampleRatio: t.SampleRatio,
		}
	}
	return cfg, nil
}

func (bo *BackoffConfig) parseBackoffConfig() *backoff.Config {
	if bo == nil {
		return nil
	}
	return &backoff.Config{
		Exponential: bo.parseExponentialBackoffConfig(),
		Constant:    bo.parseConstantBackoffConfig(),
	}
}

func (bo *BackoffConfig) parseExponentialBackoffConfig() *backoff.ExponentialConfig {
	if bo.Exponential == nil {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: time.Duration(bo.Exponential.InitialInterval) * time.Millisecond,
		MaxInterval:     time.Duration(bo.Exponential.MaxInterval) * time.Millisecond,
		MaxRetries:      uint(bo.Exponential.MaxRetries),
	}
}

func (bo *BackoffConfig) parseConstantBackoffConfig() *backoff.ConstantConfig {
	if bo.Constant == nil {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   time.Duration(bo.Constant.Interval) * time.Millisecond,
		MaxRetries: uint(bo.Constant.MaxRetries),
	}
}
