// Package config loads the CLI configuration from flags, environment
// (DASHBOARD_*) and $XDG_CONFIG_HOME/admin-dashboard/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// AppName names the config and state directories.
	AppName = "admin-dashboard"

	// EnvPrefix prefixes environment overrides, e.g. DASHBOARD_API_URL.
	EnvPrefix = "DASHBOARD"

	configName = "config"
	configType = "yaml"
)

// Keys.
const (
	KeyAPIURL         = "api_url"
	KeyTokenFile      = "token_file"
	KeyRedisURL       = "redis_url"
	KeyPageSize       = "page_size"
	KeySearchDebounce = "search_debounce"
	KeyLogLevel       = "log_level"
	KeyLogFile        = "log_file"
	KeyUserAgent      = "user_agent"
)

// Config is the resolved CLI configuration.
type Config struct {
	APIURL         string        `mapstructure:"api_url" validate:"required,http_url"`
	TokenFile      string        `mapstructure:"token_file" validate:"required"`
	RedisURL       string        `mapstructure:"redis_url"`
	PageSize       int           `mapstructure:"page_size" validate:"min=1,max=100"`
	SearchDebounce time.Duration `mapstructure:"search_debounce" validate:"min=0"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn error disabled"`
	LogFile        string        `mapstructure:"log_file"`
	UserAgent      string        `mapstructure:"user_agent" validate:"required"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Dir returns the directory holding config.yaml.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	dir, err := Dir()
	if err != nil {
		dir = "."
	}

	v.SetDefault(KeyAPIURL, "http://localhost:3000")
	v.SetDefault(KeyTokenFile, filepath.Join(dir, "token"))
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyPageSize, 10)
	v.SetDefault(KeySearchDebounce, 300*time.Millisecond)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, filepath.Join(dir, "dashboard.log"))
	v.SetDefault(KeyUserAgent, AppName+"/1.0")
}

// Load reads configuration into v and decodes it. An explicit file must
// exist; the default file is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName(configName)
		v.SetConfigType(configType)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", keyFor(fe.StructField()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func keyFor(field string) string {
	switch field {
	case "APIURL":
		return KeyAPIURL
	case "TokenFile":
		return KeyTokenFile
	case "PageSize":
		return KeyPageSize
	case "SearchDebounce":
		return KeySearchDebounce
	case "LogLevel":
		return KeyLogLevel
	case "UserAgent":
		return KeyUserAgent
	default:
		return field
	}
}
