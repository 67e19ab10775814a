package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Fortune FortuneConfig `yaml:"fortune"`
	Chat    ChatConfig    `yaml:"chat"`
	State   StateConfig   `yaml:"state"`
	Log     LogConfig     `yaml:"log"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// LLMConfig describes the OpenAI compatible completion endpoint.
type LLMConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// FortuneConfig tunes the structured reading requests. An empty persona keeps
// the built-in one.
type FortuneConfig struct {
	Persona     string  `yaml:"persona"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// ChatConfig tunes the conversational follow-up. Empty persona and greeting
// keep the built-in texts.
type ChatConfig struct {
	Persona          string  `yaml:"persona"`
	Temperature      float32 `yaml:"temperature"`
	Greeting         string  `yaml:"greeting"`
	MaxHistoryTokens int     `yaml:"maxHistoryTokens"`
}

// StateConfig selects where reading and chat sessions live.
type StateConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
	Valkey   ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared state store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// LogConfig mirrors logger.Options.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = parsed
		}
	}
	if v := os.Getenv("FORTUNE_PERSONA"); v != "" {
		cfg.Fortune.Persona = v
	}
	if v := os.Getenv("FORTUNE_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Fortune.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("FORTUNE_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Fortune.MaxTokens = parsed
		}
	}
	if v := os.Getenv("CHAT_PERSONA"); v != "" {
		cfg.Chat.Persona = v
	}
	if v := os.Getenv("CHAT_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Chat.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("CHAT_MAX_HISTORY_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.MaxHistoryTokens = parsed
		}
	}
	if v := os.Getenv("STATE_CAPACITY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.State.Capacity = parsed
		}
	}
	if v := os.Getenv("STATE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.State.TTL = parsed
		}
	}
	if v := os.Getenv("STATE_VALKEY_ENABLED"); v != "" {
		cfg.State.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("STATE_VALKEY_ADDR"); v != "" {
		cfg.State.Valkey.Addr = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   90 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			BaseURL: "https://api.siliconflow.cn/v1",
			Model:   "deepseek-ai/DeepSeek-V3",
			Timeout: 60 * time.Second,
		},
		Fortune: FortuneConfig{
			Temperature: 0.7,
			MaxTokens:   2000,
		},
		Chat: ChatConfig{
			Temperature: 0.8,
		},
		State: StateConfig{
			Capacity: 4096,
			TTL:      24 * time.Hour,
			Valkey: ValkeyConfig{
				Prefix: "fortune",
			},
		},
		Log: LogConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Validate ensures the configuration is safe to use.
// A missing API key is allowed; the upstream rejects the call instead.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout cannot be negative")
	}
	if c.Fortune.MaxTokens <= 0 {
		return errors.New("fortune.maxTokens must be positive")
	}
	if c.Fortune.Temperature < 0 || c.Fortune.Temperature > 2 {
		return errors.New("fortune.temperature must be within [0, 2]")
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return errors.New("chat.temperature must be within [0, 2]")
	}
	if c.Chat.MaxHistoryTokens < 0 {
		return errors.New("chat.maxHistoryTokens cannot be negative")
	}
	if c.State.Capacity <= 0 {
		return errors.New("state.capacity must be positive")
	}
	if c.State.TTL < 0 {
		return errors.New("state.ttl cannot be negative")
	}
	if c.State.Valkey.Enabled && strings.TrimSpace(c.State.Valkey.Addr) == "" {
		return errors.New("state.valkey.addr cannot be empty when valkey is enabled")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
