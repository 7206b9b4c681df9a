package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// LoadFile loads configuration from a YAML or TOML file of KEY: value
// pairs named like the environment variables, then from the environment.
// Variables set in the environment win over the file. The process
// environment is only read.
func LoadFile(path string) (*Config, error) {
	values, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := overlay(&cfg, values); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overlay sets the fields whose envconfig key appears in values and is not
// set in the environment.
func overlay(cfg *Config, values map[string]string) error {
	sections := reflect.ValueOf(cfg).Elem()
	for i := 0; i < sections.NumField(); i++ {
		section := sections.Field(i)
		for j := 0; j < section.NumField(); j++ {
			key := section.Type().Field(j).Tag.Get("envconfig")
			value, ok := values[key]
			if key == "" || !ok {
				continue
			}
			if _, set := os.LookupEnv(key); set {
				continue
			}
			if err := setField(section.Field(j), value); err != nil {
				return fmt.Errorf("config key %s: %w", key, err)
			}
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Uint32:
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	parsed := make(map[string]any)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	default:
		return nil, fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	values := make(map[string]string, len(parsed))
	for k, v := range parsed {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("config key %s: nested values are not supported", k)
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}
