// SPDX-License-Identifier: Apache-2.0

package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xataio/tabmap/internal/json"
	loglib "github.com/xataio/tabmap/pkg/log"
	"github.com/xataio/tabmap/pkg/transformers"
	"gopkg.in/yaml.v3"
)

// Loader reads the mappings from a YAML or JSON file. The file holds an object
// keyed by column name, where each column has either an object of source to
// replacement values or a list of {from, to} pairs.
type Loader struct {
	path     string
	format   format
	jsonPath string
	readFile func(string) ([]byte, error)
	logger   loglib.Logger
}

type Config struct {
	Path string `mapstructure:"path" yaml:"path"`
	// JSONPath selects the mappings object within a JSON document, using
	// gjson path syntax.
	JSONPath string `mapstructure:"json_path" yaml:"json_path"`
}

type Option func(*Loader)

type format uint8

const (
	formatYAML format = iota
	formatJSON
)

var (
	ErrUnsupportedFormat = errors.New("unsupported mappings file format")
	ErrPathNotFound      = errors.New("json path not found in mappings file")
)

func NewLoader(cfg *Config, opts ...Option) (*Loader, error) {
	f, err := formatFromPath(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.JSONPath != "" && f != formatJSON {
		return nil, fmt.Errorf("%w: json path is only supported for json files", ErrUnsupportedFormat)
	}

	l := &Loader{
		path:     cfg.Path,
		format:   f,
		jsonPath: cfg.JSONPath,
		readFile: os.ReadFile,
		logger:   loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(fl *Loader) {
		fl.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "file_mappings_loader",
		})
	}
}

func (l *Loader) Load(_ context.Context) (transformers.Mappings, error) {
	data, err := l.readFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading mappings file: %w", err)
	}

	var raw any
	switch l.format {
	case formatJSON:
		if l.jsonPath != "" {
			res := gjson.GetBytes(data, l.jsonPath)
			if !res.Exists() {
				return nil, fmt.Errorf("%w: %s", ErrPathNotFound, l.jsonPath)
			}
			data = []byte(res.Raw)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshaling json mappings file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshaling yaml mappings file: %w", err)
		}
	}

	m, err := transformers.ParseMappings(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing mappings file %s: %w", l.path, err)
	}

	l.logger.Debug("mappings loaded from file", loglib.Fields{
		"path":    l.path,
		"columns": m.Columns(),
	})
	return m, nil
}

func (l *Loader) Close() error {
	return nil
}

func formatFromPath(path string) (format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
