// Package config loads client configuration from defaults, an optional
// YAML file, and environment variable overrides, in that order of
// precedence (later wins).
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("llmkit.yaml").
//	    WithEnvPrefix("LLMKIT").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	// API holds endpoint and model settings.
	API APIConfig `yaml:"api" env:"API"`

	// Retry tunes the transport's backoff behavior.
	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	// Images tunes image generation and local persistence.
	Images ImagesConfig `yaml:"images" env:"IMAGES"`

	// Files tunes file upload behavior.
	Files FilesConfig `yaml:"files" env:"FILES"`

	// Log tunes structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`
}

// APIConfig holds endpoint and model settings.
type APIConfig struct {
	// BaseURL of the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// APIKey for bearer authentication. Usually left empty here and
	// supplied via the LLMKIT_API_KEY environment variable instead.
	APIKey string `yaml:"api_key" env:"KEY"`
	// ChatModel is the default chat model.
	ChatModel string `yaml:"chat_model" env:"CHAT_MODEL"`
	// ImageModel is the default image generation model.
	ImageModel string `yaml:"image_model" env:"IMAGE_MODEL"`
	// Per-operation request timeouts.
	ChatTimeout  time.Duration `yaml:"chat_timeout" env:"CHAT_TIMEOUT"`
	ImageTimeout time.Duration `yaml:"image_timeout" env:"IMAGE_TIMEOUT"`
	FileTimeout  time.Duration `yaml:"file_timeout" env:"FILE_TIMEOUT"`
	// RateLimit caps outbound requests per second; zero means unlimited.
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// RetryConfig tunes transport retries.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// InitialDelay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	// MaxDelay caps the backoff.
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	// Multiplier grows the delay between attempts.
	Multiplier float64 `yaml:"multiplier" env:"MULTIPLIER"`
	// Jitter randomizes delays to avoid thundering herds.
	Jitter bool `yaml:"jitter" env:"JITTER"`
}

// ImagesConfig tunes image generation.
type ImagesConfig struct {
	// OutputDir receives downloaded images.
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
	// Count is the default number of images per prompt.
	Count int `yaml:"count" env:"COUNT"`
	// Size is the default WIDTHxHEIGHT, empty for provider default.
	Size string `yaml:"size" env:"SIZE"`
	// ResponseFormat is "url" or "b64_json".
	ResponseFormat string `yaml:"response_format" env:"RESPONSE_FORMAT"`
	// Concurrency bounds parallel downloads.
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

// FilesConfig tunes file uploads.
type FilesConfig struct {
	// Purpose is the default upload purpose tag.
	Purpose string `yaml:"purpose" env:"PURPOSE"`
	// Concurrency bounds parallel batch uploads.
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

// LogConfig tunes structured logging.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// Loader assembles a Config (builder pattern).
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the LLMKIT env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "LLMKIT"}
}

// WithConfigPath sets the YAML file path. A missing file is not an
// error; defaults and env apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validation step run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration: defaults, then YAML file, then
// environment overrides, then validators.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	l.applyAliases(cfg)

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// applyAliases handles the short-form variables users actually set:
// LLMKIT_API_KEY and LLMKIT_BASE_URL, mirrored onto the nested fields.
func (l *Loader) applyAliases(cfg *Config) {
	if v := os.Getenv(l.envPrefix + "_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv(l.envPrefix + "_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
}

func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// MustLoad loads the configuration or panics. Intended for main().
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).WithValidator(Validate).Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
