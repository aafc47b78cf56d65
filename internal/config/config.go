// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"voice-lead-agent/internal/logging"
)

const (
	RuntimeHTTP   = "http"
	RuntimeLambda = "lambda"

	defaultListenAddr        = "0.0.0.0:5000"
	defaultModel             = "gpt-3.5-turbo"
	defaultMaxTokens         = 300
	defaultCompletionTimeout = 30 * time.Second
)

// Config holds everything cmd needs to wire the service.
type Config struct {
	// OpenAIAPIKey is the completion-service credential. When empty,
	// OpenAIAPIKeyParam names an SSM parameter holding it.
	OpenAIAPIKey      string
	OpenAIAPIKeyParam string
	OpenAIBaseURL     string
	Model             string
	MaxTokens         int

	// CompletionTimeout bounds each upstream call.
	CompletionTimeout time.Duration

	ListenAddr string
	Runtime    string
	LogLevel   slog.Level
}

// LoadDotEnv loads variables from the given files (".env" by default) into the
// process environment. Missing files are ignored and existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration through getenv, which is os.Getenv outside
// tests.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		OpenAIAPIKey:      env("OPENAI_API_KEY"),
		OpenAIAPIKeyParam: env("OPENAI_API_KEY_PARAM"),
		OpenAIBaseURL:     env("OPENAI_BASE_URL"),
		Model:             envOr(env("OPENAI_MODEL"), defaultModel),
		ListenAddr:        envOr(env("LISTEN_ADDR"), defaultListenAddr),
		Runtime:           strings.ToLower(envOr(env("RUNTIME"), RuntimeHTTP)),
		LogLevel:          logging.ParseLevel(env("LOG_LEVEL")),
	}

	var err error
	if cfg.MaxTokens, err = envInt(env("MAX_TOKENS"), defaultMaxTokens); err != nil {
		return Config{}, fmt.Errorf("config: MAX_TOKENS: %w", err)
	}
	if cfg.CompletionTimeout, err = envDuration(env("COMPLETION_TIMEOUT"), defaultCompletionTimeout); err != nil {
		return Config{}, fmt.Errorf("config: COMPLETION_TIMEOUT: %w", err)
	}

	if cfg.OpenAIAPIKey == "" && cfg.OpenAIAPIKeyParam == "" {
		return Config{}, errors.New("config: OPENAI_API_KEY or OPENAI_API_KEY_PARAM must be set")
	}
	if cfg.Runtime != RuntimeHTTP && cfg.Runtime != RuntimeLambda {
		return Config{}, fmt.Errorf("config: RUNTIME must be %q or %q, got %q", RuntimeHTTP, RuntimeLambda, cfg.Runtime)
	}
	return cfg, nil
}

func envOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func envInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func envDuration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
