// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/xataio/tabmap/internal/backoff"
	"github.com/xataio/tabmap/pkg/mappings/file"
	"github.com/xataio/tabmap/pkg/mappings/postgres"
	"github.com/xataio/tabmap/pkg/otel"
	"github.com/xataio/tabmap/pkg/pipeline"
	"github.com/xataio/tabmap/pkg/transformers"
)

// envConfigToPipelineConfig supports a single mapping transformer, configured
// through TABMAP_ environment variables.
func envConfigToPipelineConfig() (*pipeline.Config, error) {
	columns := viper.GetStringSlice("TABMAP_TRANSFORMER_COLUMNS")
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: TABMAP_TRANSFORMER_COLUMNS is required", transformers.ErrInvalidParameters)
	}

	transformerType := viper.GetString("TABMAP_TRANSFORMER_TYPE")
	if transformerType == "" {
		transformerType = string(transformers.Mapping)
	}

	return &pipeline.Config{
		Transformers: []pipeline.TransformerConfig{
			{
				Name: viper.GetString("TABMAP_TRANSFORMER_NAME"),
				Type: transformers.TransformerType(transformerType),
				Parameters: transformers.Parameters{
					"columns": columns,
					"verbose": viper.GetBool("TABMAP_TRANSFORMER_VERBOSE"),
				},
			},
		},
		Mappings:    parseMappingsConfig(),
		Concurrency: viper.GetInt("TABMAP_CONCURRENCY"),
	}, nil
}

func parseMappingsConfig() pipeline.MappingsConfig {
	cfg := pipeline.MappingsConfig{}
	jsonPath := viper.GetString("TABMAP_MAPPINGS_JSON_PATH")
	for _, path := range viper.GetStringSlice("TABMAP_MAPPINGS_FILES") {
		cfg.Files = append(cfg.Files, file.Config{
			Path:     path,
			JSONPath: jsonPath,
		})
	}

	if pgURL := viper.GetString("TABMAP_MAPPINGS_POSTGRES_URL"); pgURL != "" {
		cfg.Postgres = &postgres.Config{
			URL:       pgURL,
			Table:     viper.GetString("TABMAP_MAPPINGS_POSTGRES_TABLE"),
			Columns:   viper.GetStringSlice("TABMAP_MAPPINGS_POSTGRES_COLUMNS"),
			ValueType: postgres.ValueType(viper.GetString("TABMAP_MAPPINGS_POSTGRES_VALUE_TYPE")),
			Backoff:   parseBackoffConfig("TABMAP_MAPPINGS_POSTGRES"),
		}
	}
	return cfg
}

func parseBackoffConfig(prefix string) *backoff.Config {
	cfg := &backoff.Config{
		Exponential: parseExponentialBackoffConfig(prefix),
		Constant:    parseConstantBackoffConfig(prefix),
	}
	if cfg.Exponential == nil && cfg.Constant == nil {
		return nil
	}
	return cfg
}

func parseExponentialBackoffConfig(prefix string) *backoff.ExponentialConfig {
	initialInterval := viper.GetDuration(fmt.Sprintf("%s_EXP_BACKOFF_INITIAL_INTERVAL", prefix))
	maxInterval := viper.GetDuration(fmt.Sprintf("%s_EXP_BACKOFF_MAX_INTERVAL", prefix))
	maxRetries := viper.GetUint(fmt.Sprintf("%s_EXP_BACKOFF_MAX_RETRIES", prefix))
	if initialInterval == 0 && maxInterval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: initialInterval,
		MaxInterval:     maxInterval,
		MaxRetries:      maxRetries,
	}
}

func parseConstantBackoffConfig(prefix string) *backoff.ConstantConfig {
	interval := viper.GetDuration(fmt.Sprintf("%s_BACKOFF_INTERVAL", prefix))
	maxRetries := viper.GetUint(fmt.Sprintf("%s_BACKOFF_MAX_RETRIES", prefix))
	if interval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   interval,
		MaxRetries: maxRetries,
	}
}

func envToOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}

	if endpoint := viper.GetString("TABMAP_METRICS_ENDPOINT"); endpoint != "" {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           endpoint,
			CollectionInterval: viper.GetDuration("TABMAP_METRICS_COLLECTION_INTERVAL"),
		}
	}

	if endpoint := viper.GetString("TABMAP_TRACES_ENDPOINT"); endpoint != "" {
		sampleRatio := viper.GetFloat64("TABMAP_TRACES_SAMPLE_RATIO")
		if sampleRatio < 0 || sampleRatio > 1 {
			return nil, fmt.Errorf("invalid traces sample ratio %v, must be between 0 and 1", sampleRatio)
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    endpoint,
			SampleRatio: sampleRatio,
		}
	}
	return cfg, nil
}
