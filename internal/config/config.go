package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// Config groups the development backend settings.
type Config struct {
	Server ServerConfig
	AI     AIConfig
}

// Load reads the development backend configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// loadServerConfig resolves the listen address from PORT.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	origins := splitList(getEnvOrDefault("CORS_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// PORT may already be ":5000" or "127.0.0.1:5000".
		return ServerConfig{Addr: port, CORSOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CORSOrigins: origins}, nil
}

// AIConfig holds the Ark model settings.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether a model and credentials are configured.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// ClientConfig drives the terminal client.
type ClientConfig struct {
	APIURL       string        `yaml:"api_url"`
	HistoryLimit int           `yaml:"history_limit"`
	StateDir     string        `yaml:"-"`
	Storage      string        `yaml:"storage"`
	Timeout      time.Duration `yaml:"-"`
	TimeoutSecs  int           `yaml:"timeout_seconds"`
}

const clientConfigFile = "config.yaml"

// DefaultClientConfig returns the client defaults before any overrides.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		APIURL:       "http://localhost:5000",
		HistoryLimit: 5,
		StateDir:     defaultStateDir(),
		Storage:      "file",
		TimeoutSecs:  30,
		Timeout:      30 * time.Second,
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".risechat"
	}
	return filepath.Join(home, ".risechat")
}

// LoadClient resolves the client configuration: defaults, then config.yaml in the state
// directory, then environment variables. A non-empty stateDir overrides RISECHAT_STATE_DIR.
func LoadClient(stateDir string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	cfg.StateDir = getEnvOrDefault("RISECHAT_STATE_DIR", cfg.StateDir)
	if stateDir != "" {
		cfg.StateDir = stateDir
	}

	if err := overlayClientFile(&cfg); err != nil {
		return ClientConfig{}, err
	}

	cfg.APIURL = getEnvOrDefault("RISECHAT_API_URL", cfg.APIURL)
	cfg.Storage = getEnvOrDefault("RISECHAT_STORAGE", cfg.Storage)

	limit, err := parseOptionalIntEnv("RISECHAT_HISTORY_LIMIT")
	if err != nil {
		return ClientConfig{}, err
	}
	if limit != nil {
		cfg.HistoryLimit = *limit
	}

	timeout, err := parseOptionalIntEnv("RISECHAT_TIMEOUT")
	if err != nil {
		return ClientConfig{}, err
	}
	if timeout != nil {
		cfg.TimeoutSecs = *timeout
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 30
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSecs) * time.Second

	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 1
	}
	return cfg, nil
}

func overlayClientFile(cfg *ClientConfig) error {
	path := filepath.Join(cfg.StateDir, clientConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	stateDir := cfg.StateDir
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.StateDir = stateDir
	return nil
}

// WriteClientFile persists the file-backed part of cfg to config.yaml in its state directory.
func WriteClientFile(cfg ClientConfig) error {
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(cfg.StateDir, clientConfigFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
