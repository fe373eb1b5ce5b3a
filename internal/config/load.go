package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/integrity/internal/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides (INTEGRITY_LLM_PROVIDER, ...)
const EnvPrefix = "INTEGRITY"

// DefaultPath returns ~/.integrity/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".integrity", "config.yaml"), nil
}

// Load resolves the configuration. Precedence, highest first: flags bound on v,
// INTEGRITY_* env, the config file, built-in defaults. Provider credentials
// fill whatever is still empty.
//
// configFile may be empty, in which case ~/.integrity/config.yaml is used when present.
func Load(v *viper.Viper, configFile string) (*model.Config, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if err := mergeFile(v, configFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}
	creds.Apply(cfg)

	return cfg, nil
}

// setDefaults registers every default key with v so env overrides and
// unmarshalling see the full tree
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("read defaults: %w", err)
	}
	// Secrets are excluded from YAML but still overridable
	v.SetDefault("llm.api_key", "")
	v.SetDefault("search.api_key", "")
	return nil
}

func mergeFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
		return nil
	}

	path, err := DefaultPath()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Redacted returns a copy of cfg that is safe to print
func Redacted(cfg *model.Config) *model.Config {
	out := *cfg
	out.LLM.APIKey = redact(cfg.LLM.APIKey)
	out.Search.APIKey = redact(cfg.Search.APIKey)
	return &out
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
