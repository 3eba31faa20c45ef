package config

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/llmkit-go/llmkit/llm/client"
	"github.com/llmkit-go/llmkit/llm/request"
	"github.com/llmkit-go/llmkit/llm/retry"
	"github.com/llmkit-go/llmkit/llm/transport"
)

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() *Config {
	rp := retry.DefaultPolicy()
	return &Config{
		API: APIConfig{
			BaseURL:      transport.DefaultBaseURL,
			ChatModel:    client.DefaultChatModel,
			ImageModel:   client.DefaultImageModel,
			ChatTimeout:  transport.DefaultChatTimeout,
			ImageTimeout: transport.DefaultImageTimeout,
			FileTimeout:  transport.DefaultFileTimeout,
		},
		Retry: RetryConfig{
			MaxRetries:   rp.MaxRetries,
			InitialDelay: rp.InitialDelay,
			MaxDelay:     rp.MaxDelay,
			Multiplier:   rp.Multiplier,
			Jitter:       rp.Jitter,
		},
		Images: ImagesConfig{
			OutputDir:      ".",
			Count:          1,
			ResponseFormat: "url",
			Concurrency:    client.DefaultMaxConcurrency,
		},
		Files: FilesConfig{
			Purpose:     "assistants",
			Concurrency: client.DefaultMaxConcurrency,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

var sizePattern = regexp.MustCompile(`^\d+x\d+$`)

// Validate rejects configurations that would only fail later, at
// request time, with a less helpful message.
func Validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if cfg.Images.Count < request.MinImageCount || cfg.Images.Count > request.MaxImageCount {
		return fmt.Errorf("images.count must be in [%d, %d], got %d",
			request.MinImageCount, request.MaxImageCount, cfg.Images.Count)
	}
	if cfg.Images.Size != "" && !sizePattern.MatchString(cfg.Images.Size) {
		return fmt.Errorf("images.size must look like 1024x768, got %q", cfg.Images.Size)
	}
	if f := cfg.Images.ResponseFormat; f != "" && f != "url" && f != "b64_json" {
		return fmt.Errorf("images.response_format must be url or b64_json, got %q", f)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", cfg.Log.Format)
	}
	return nil
}

// TransportConfig converts the API and retry sections into the
// transport's own configuration.
func (c *Config) TransportConfig(logger *zap.Logger) transport.Config {
	return transport.Config{
		BaseURL:      c.API.BaseURL,
		ChatTimeout:  c.API.ChatTimeout,
		ImageTimeout: c.API.ImageTimeout,
		FileTimeout:  c.API.FileTimeout,
		RateLimit:    c.API.RateLimit,
		Retry: retry.Policy{
			MaxRetries:   c.Retry.MaxRetries,
			InitialDelay: c.Retry.InitialDelay,
			MaxDelay:     c.Retry.MaxDelay,
			Multiplier:   c.Retry.Multiplier,
			Jitter:       c.Retry.Jitter,
		},
		Logger: logger,
	}
}

// ClientConfig converts into the client's configuration.
func (c *Config) ClientConfig(logger *zap.Logger) client.Config {
	return client.Config{
		Transport:      c.TransportConfig(logger),
		ChatModel:      c.API.ChatModel,
		ImageModel:     c.API.ImageModel,
		MaxConcurrency: c.Files.Concurrency,
		Logger:         logger,
	}
}

// BuildLogger constructs a zap logger per the log section.
func (c LogConfig) BuildLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = c.Format
	if c.Format == "console" {
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
