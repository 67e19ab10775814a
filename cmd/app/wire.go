//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/fortune-master/internal/bootstrap"
	"github.com/yanqian/fortune-master/internal/domain/chat"
	"github.com/yanqian/fortune-master/internal/domain/fortune"
	"github.com/yanqian/fortune-master/internal/domain/session"
	"github.com/yanqian/fortune-master/internal/infra/config"
	"github.com/yanqian/fortune-master/internal/infra/llm/chatgpt"
	httpiface "github.com/yanqian/fortune-master/internal/interface/http"
	"github.com/yanqian/fortune-master/pkg/logger"
	"github.com/yanqian/fortune-master/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		provideLoggerOptions,
		logger.New,
		provideChatGPTClient,
		provideTokenCounter,
		provideFortuneConfig,
		provideChatConfig,
		provideValkeyClient,
		provideSessionStore,
		provideChatStore,
		fortune.NewService,
		chat.NewResponder,
		chat.NewService,
		session.NewService,
		wire.Bind(new(fortune.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(chat.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(fortune.TokenCounter), new(*metrics.TokenCounter)),
		wire.Bind(new(chat.TokenCounter), new(*metrics.TokenCounter)),
		wire.Bind(new(chat.Replier), new(*chat.Responder)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
