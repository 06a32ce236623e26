package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/raven-betanet/classinspect/internal/classfile"
)

// EnvPrefix prefixes every environment override, e.g. CLASSINSPECT_LOG_LEVEL.
const EnvPrefix = "CLASSINSPECT"

// Config represents the application configuration
type Config struct {
	Log     LoggerConfig  `yaml:"log" mapstructure:"log"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Inspect InspectConfig `yaml:"inspect" mapstructure:"inspect"`
	Checks  ChecksConfig  `yaml:"checks" mapstructure:"checks"`
}

// OutputConfig holds report rendering configuration
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// InspectConfig controls how paths are scanned for class files
type InspectConfig struct {
	Recursive  bool `yaml:"recursive" mapstructure:"recursive"`
	MaxEntries int  `yaml:"max_entries" mapstructure:"max_entries"`
}

// ChecksConfig holds header check configuration
type ChecksConfig struct {
	MinMajorVersion   string   `yaml:"min_major_version" mapstructure:"min_major_version"`
	AllowUnknownMajor bool     `yaml:"allow_unknown_major" mapstructure:"allow_unknown_major"`
	Skip              []string `yaml:"skip" mapstructure:"skip"`
}

// MinimumMajorVersion resolves MinMajorVersion. ok is false when unset.
func (c ChecksConfig) MinimumMajorVersion() (v classfile.MajorVersion, ok bool, err error) {
	if strings.TrimSpace(c.MinMajorVersion) == "" {
		return classfile.Unknown, false, nil
	}
	v, err = classfile.ParseMajorVersion(c.MinMajorVersion)
	if err != nil {
		return classfile.Unknown, false, err
	}
	return v, true, nil
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
	validOutputFormats = []string{"text", "json", "yaml", "table"}
)

// ConfigManager handles configuration loading and management
type ConfigManager struct {
	config *Config
	viper  *viper.Viper
	logger *Logger
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: &Config{},
		viper:  viper.New(),
		logger: NewDefaultLogger(),
	}
}

// SetLogger sets the logger used while loading and saving.
func (c *ConfigManager) SetLogger(logger *Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// LoadConfig loads configuration from defaults, an optional file and
// environment variables, in increasing order of precedence.
func (c *ConfigManager) LoadConfig(configFile string) error {
	c.setDefaults()
	c.bindEnv()

	c.viper.SetConfigType("yaml")
	if configFile != "" {
		c.viper.SetConfigFile(configFile)
		if err := c.viper.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file not found: %s", configFile)
			}
			return fmt.Errorf("failed to read config file: %w", err)
		}
		c.logger.WithComponent("config").Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
	} else {
		c.viper.SetConfigName("config")
		c.viper.AddConfigPath(".")
		c.viper.AddConfigPath("$HOME/.classinspect")
		c.viper.AddConfigPath("/etc/classinspect")

		if err := c.viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent("config").Debug("No config file found, using defaults and environment variables")
		} else {
			c.logger.WithComponent("config").Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	}

	if err := c.finish(); err != nil {
		return err
	}
	c.logger.WithComponent("config").Debug("Configuration loaded successfully")
	return nil
}

// finish unmarshals the viper state into a fresh Config and validates it
func (c *ConfigManager) finish() error {
	config := &Config{}
	if err := c.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.config = config

	if err := c.validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func (c *ConfigManager) setDefaults() {
	c.viper.SetDefault("log.level", "info")
	c.viper.SetDefault("log.format", "text")

	c.viper.SetDefault("output.format", "text")

	c.viper.SetDefault("inspect.recursive", false)
	c.viper.SetDefault("inspect.max_entries", 0)

	c.viper.SetDefault("checks.min_major_version", "")
	c.viper.SetDefault("checks.allow_unknown_major", false)
	c.viper.SetDefault("checks.skip", []string{})
}

func (c *ConfigManager) bindEnv() {
	c.viper.SetEnvPrefix(EnvPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.viper.AutomaticEnv()
}

// validateConfig validates the loaded configuration
func (c *ConfigManager) validateConfig() error {
	level, err := ParseLogLevel(string(c.config.Log.Level))
	if err != nil {
		return err
	}
	c.config.Log.Level = level

	format, err := ParseLogFormat(string(c.config.Log.Format))
	if err != nil {
		return err
	}
	c.config.Log.Format = format

	c.config.Output.Format = strings.ToLower(c.config.Output.Format)
	if !contains(validOutputFormats, c.config.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.config.Output.Format, validOutputFormats)
	}

	if c.config.Inspect.MaxEntries < 0 {
		return fmt.Errorf("invalid max_entries: %d (must be >= 0)", c.config.Inspect.MaxEntries)
	}

	if _, _, err := c.config.Checks.MinimumMajorVersion(); err != nil {
		return fmt.Errorf("invalid min_major_version: %w", err)
	}

	return nil
}

// GetConfig returns the loaded configuration
func (c *ConfigManager) GetConfig() *Config {
	return c.config
}

// SaveConfig writes the effective configuration to filename. The format
// follows the file extension.
func (c *ConfigManager) SaveConfig(filename string) error {
	if err := c.viper.WriteConfigAs(filename); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	c.logger.WithComponent("config").Debugf("Saved config to: %s", filename)
	return nil
}

// GetConfigValue gets a configuration value by dotted key. ok is false for
// keys that are neither defaulted nor set.
func (c *ConfigManager) GetConfigValue(key string) (value interface{}, ok bool) {
	key = strings.ToLower(key)
	if !c.viper.IsSet(key) {
		return nil, false
	}
	return c.viper.Get(key), true
}

// SetConfigValue overrides a configuration value by dotted key and
// revalidates the configuration.
func (c *ConfigManager) SetConfigValue(key string, value interface{}) error {
	c.viper.Set(key, value)
	return c.finish()
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
