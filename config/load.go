package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// Load reads path on top of base. A sibling "<name>.local.<ext>" file, when
// present, is merged over the result; only its non-zero values take effect.
func Load(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := *base
	if err := decode(path, data, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	localPath := localName(path)
	localData, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read local config: %w", err)
	}
	if len(localData) > 0 {
		var override Config
		if err := decode(localPath, localData, &override); err != nil {
			return nil, fmt.Errorf("decode %s: %w", localPath, err)
		}
		if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge local config: %w", err)
		}
		slog.Info("merging config with local overrides", slog.String("local", localPath))
	}

	return &cfg, nil
}

func decode(path string, data []byte, out *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".json", ".json5":
		return json5.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
}

// localName turns "dir/site.yaml" into "dir/site.local.yaml".
func localName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}
