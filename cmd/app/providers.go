package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/fortune-master/internal/domain/chat"
	"github.com/yanqian/fortune-master/internal/domain/fortune"
	"github.com/yanqian/fortune-master/internal/domain/session"
	"github.com/yanqian/fortune-master/internal/infra/config"
	"github.com/yanqian/fortune-master/internal/infra/llm/chatgpt"
	"github.com/yanqian/fortune-master/internal/infra/statestore"
	"github.com/yanqian/fortune-master/pkg/logger"
	"github.com/yanqian/fortune-master/pkg/metrics"
)

func provideLoggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Console:    cfg.Log.Console,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
}

func provideChatGPTClient(cfg *config.Config, logger *slog.Logger) *chatgpt.Client {
	if cfg.LLM.APIKey == "" {
		logger.Warn("no LLM api key configured; completion calls will be rejected upstream")
	}
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
}

func provideTokenCounter(cfg *config.Config) *metrics.TokenCounter {
	return metrics.NewTokenCounter(cfg.LLM.Model)
}

func provideFortuneConfig(cfg *config.Config) fortune.Config {
	return fortune.Config{
		Model:       cfg.LLM.Model,
		Persona:     cfg.Fortune.Persona,
		Temperature: cfg.Fortune.Temperature,
		MaxTokens:   cfg.Fortune.MaxTokens,
	}
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		Model:            cfg.LLM.Model,
		Persona:          cfg.Chat.Persona,
		Temperature:      cfg.Chat.Temperature,
		Greeting:         cfg.Chat.Greeting,
		MaxHistoryTokens: cfg.Chat.MaxHistoryTokens,
	}
}

// provideValkeyClient returns nil when valkey is disabled or unreachable, in
// which case the stores fall back to process memory.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	noop := func() {}
	if !cfg.State.Valkey.Enabled {
		return nil, noop
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return nil, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return nil, noop
	}
	logger.Info("valkey state store enabled", "addr", cfg.State.Valkey.Addr)
	return client, client.Close
}

func provideSessionStore(cfg *config.Config, client valkey.Client) session.Store {
	if client != nil {
		return statestore.NewValkeyStore[session.State](client, cfg.State.Valkey.Prefix, "session", cfg.State.TTL)
	}
	return statestore.NewMemoryStore[session.State](cfg.State.Capacity, cfg.State.TTL)
}

func provideChatStore(cfg *config.Config, client valkey.Client) chat.Store {
	if client != nil {
		return statestore.NewValkeyStore[chat.Session](client, cfg.State.Valkey.Prefix, "chat", cfg.State.TTL)
	}
	return statestore.NewMemoryStore[chat.Session](cfg.State.Capacity, cfg.State.TTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.State.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.State.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.State.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
