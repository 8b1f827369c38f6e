package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/recordstore/internal/logger"
	"github.com/mesh-intelligence/recordstore/internal/paths"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "RECORDSTORE"

	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeyName      = "name"
	cfgKeyOpTimeout = "op_timeout"
	cfgKeyLogLevel  = "log_level"
	cfgKeyLogFormat = "log_format"
)

// configFile is the structure written to config.yaml on first run.
type configFile struct {
	Backend   string `yaml:"backend"`
	Name      string `yaml:"name"`
	OpTimeout string `yaml:"op_timeout"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	DataDir   string `yaml:"data_dir,omitempty"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:   types.BackendSQLite,
		Name:      types.DefaultName,
		OpTimeout: types.DefaultOpTimeout.String(),
		LogLevel:  logger.DefaultLevel,
		LogFormat: string(logger.DefaultFormat),
	}
}

// configure loads .env files, reads config.yaml, binds flags and builds the
// logger.
func (a *app) configure(cmd *cobra.Command) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	configDir, err := a.configDir()
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}

	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag(cfgKeyBackend, flags.Lookup("backend")); err != nil {
		return sysError(err)
	}
	if err := v.BindPFlag(cfgKeyLogLevel, flags.Lookup("log-level")); err != nil {
		return sysError(err)
	}
	a.cfg = v

	log, err := logger.New(v.GetString(cfgKeyLogLevel), logger.Format(v.GetString(cfgKeyLogFormat)), a.stderr)
	if err != nil {
		return userError(err)
	}
	a.log = log
	return nil
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. Environment variables with the RECORDSTORE_
// prefix override file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt)); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyName, def.Name)
	v.SetDefault(cfgKeyOpTimeout, def.OpTimeout)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	// data_dir is resolved by the paths package, which ranks config.yaml
	// above the environment, so it is not bound here.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range []string{cfgKeyBackend, cfgKeyName, cfgKeyOpTimeout, cfgKeyLogLevel, cfgKeyLogFormat} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone.
func writeConfigIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	def := defaultConfigFile()
	data, err := yaml.Marshal(&def)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte("# recordstore configuration\n"), data...), 0o644)
}

func (a *app) configDir() (string, error) {
	if a.flags.user && a.flags.configDir == "" && os.Getenv(paths.EnvConfigDir) == "" {
		return paths.UserConfigDir()
	}
	return paths.ConfigDir(a.flags.configDir)
}

func (a *app) dataDir() (string, error) {
	configured := a.cfg.GetString(cfgKeyDataDir)
	if a.flags.user && a.flags.dataDir == "" && configured == "" && os.Getenv(paths.EnvDataDir) == "" {
		return paths.UserDataDir()
	}
	return paths.DataDir(a.flags.dataDir, configured)
}

// storeConfig assembles the handle configuration from flags, environment
// and config.yaml.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	timeout, err := time.ParseDuration(a.cfg.GetString(cfgKeyOpTimeout))
	if err != nil {
		return types.Config{}, userErrorf("invalid %s: %v", cfgKeyOpTimeout, err)
	}

	cfg := types.Config{
		Backend:   a.cfg.GetString(cfgKeyBackend),
		DataDir:   dataDir,
		Name:      a.cfg.GetString(cfgKeyName),
		OpTimeout: timeout,
	}.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userErrorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
