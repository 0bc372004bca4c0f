package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "MANGASHELF"
	configHeader   = "# mangashelf configuration\n"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeySyncStrategy  = "sync_strategy"
	cfgKeyBatchSize     = "batch_size"
	cfgKeyBatchInterval = "batch_interval"
	cfgKeyLogLevel      = "log_level"
	cfgKeyLogFormat     = "log_format"
	cfgKeyEnvironment   = "environment"
	cfgKeyLanguage      = "language"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend       string `yaml:"backend"`
	DataDir       string `yaml:"data_dir,omitempty"`
	SyncStrategy  string `yaml:"sync_strategy"`
	BatchSize     int    `yaml:"batch_size"`
	BatchInterval int    `yaml:"batch_interval"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format,omitempty"`
	Language      string `yaml:"language,omitempty"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:       types.BackendSQLite,
		SyncStrategy:  types.SyncImmediate,
		BatchSize:     types.DefaultBatchSize,
		BatchInterval: types.DefaultBatchInterval,
		LogLevel:      "warn",
	}
}

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. Keys can be overridden with
// MANGASHELF_ environment variables, for example MANGASHELF_LOG_LEVEL.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultConfigFile()); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeySyncStrategy, def.SyncStrategy)
	v.SetDefault(cfgKeyBatchSize, def.BatchSize)
	v.SetDefault(cfgKeyBatchInterval, def.BatchInterval)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates path with cfg if the file does not exist.
// An existing file is left untouched.
func writeConfigIfMissing(path string, cfg configFile) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}

// updateConfigFile rewrites config.yaml after applying edit to its
// current contents.
func updateConfigFile(path string, edit func(*configFile)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg := defaultConfigFile()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	edit(&cfg)
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), out...), 0o644)
}

// backendConfig builds the Attach configuration from config.yaml.
func (a *app) backendConfig() (types.Config, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
		SQLiteConfig: &types.SQLiteConfig{
			SyncStrategy:  a.cfg.GetString(cfgKeySyncStrategy),
			BatchSize:     a.cfg.GetInt(cfgKeyBatchSize),
			BatchInterval: a.cfg.GetInt(cfgKeyBatchInterval),
		},
	}
	return cfg, cfg.Validate()
}
