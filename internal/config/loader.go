package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: database.host is read
// from YUMZOOM_DATABASE_HOST.
const EnvPrefix = "YUMZOOM"

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range settingKeys(reflect.TypeOf(Config{}), "") {
		// Unmarshal only consults the environment for keys viper knows.
		_ = v.BindEnv(key)
	}
	return v
}

// settingKeys lists the dotted mapstructure keys of every leaf field of t.
func settingKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() == t.PkgPath() {
			keys = append(keys, settingKeys(f.Type, name)...)
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode settings: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// Load reads the YAML file at path, applies YUMZOOM_* overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}
	return decode(v)
}

// LoadFromEnv builds the Config from defaults and YUMZOOM_* variables only,
// e.g. YUMZOOM_RATE_LIMIT_BACKEND=postgres.
func LoadFromEnv() (*Config, error) {
	return decode(newViper(""))
}

// LoadOrEnv is Load for a non-empty path and LoadFromEnv otherwise.
func LoadOrEnv(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv()
	}
	return Load(path)
}

// MustLoad panics when Load fails.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Watch calls onChange with the re-validated Config each time the file at
// path is rewritten.  A change that fails validation goes to onError and
// the previous settings stay in force.  Callers apply only the settings
// that are safe to change live: log level and default rate limits.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

//Personal.AI order the ending
