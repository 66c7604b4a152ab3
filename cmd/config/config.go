// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/xataio/tabmap/pkg/otel"
	"github.com/xataio/tabmap/pkg/pipeline"
)

var errUnsupportedConfigFormat = errors.New("unsupported config file format")

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	if file == "" {
		return nil
	}

	ext := filepath.Ext(file)
	if ext == "" {
		return fmt.Errorf("%w: %s", errUnsupportedConfigFormat, file)
	}
	viper.SetConfigFile(file)
	viper.SetConfigType(ext[1:])
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// ParsePipelineConfig returns the pipeline configuration from the loaded
// config file, or from the environment if the config file is not YAML.
func ParsePipelineConfig() (*pipeline.Config, error) {
	cfgFile := viper.GetViper().ConfigFileUsed()
	switch ext := filepath.Ext(cfgFile); ext {
	case ".yml", ".yaml":
		yamlCfg, err := readYAMLConfig(cfgFile)
		if err != nil {
			return nil, err
		}
		return yamlCfg.toPipelineConfig()
	default:
		return envConfigToPipelineConfig()
	}
}

func ParseInstrumentationConfig() (*otel.Config, error) {
	cfgFile := viper.GetViper().ConfigFileUsed()
	switch ext := filepath.Ext(cfgFile); ext {
	case ".yml", ".yaml":
		yamlCfg, err := readYAMLConfig(cfgFile)
		if err != nil {
			return nil, err
		}
		return yamlCfg.toOtelConfig()
	default:
		return envToOtelConfig()
	}
}

func LogLevel() string {
	return viper.GetString("TABMAP_LOG_LEVEL")
}
