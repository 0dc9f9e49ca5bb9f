//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/doc-summarizer/internal/bootstrap"
	"github.com/yanqian/doc-summarizer/internal/domain/auth"
	"github.com/yanqian/doc-summarizer/internal/domain/docchat"
	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
	"github.com/yanqian/doc-summarizer/internal/infra/config"
	"github.com/yanqian/doc-summarizer/internal/infra/extract"
	httpiface "github.com/yanqian/doc-summarizer/internal/interface/http"
	"github.com/yanqian/doc-summarizer/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSummaryConfig,
		provideChatConfig,
		provideAuthConfig,
		provideLLMClient,
		provideSummaryChatClient,
		provideChatLLM,
		provideTokenCounter,
		provideExtractor,
		provideHistoryRepository,
		provideSummaryCache,
		provideDocumentStorage,
		summarizer.NewService,
		docchat.NewService,
		auth.NewService,
		wire.Bind(new(summarizer.TextExtractor), new(*extract.Extractor)),
		wire.Bind(new(docchat.TextExtractor), new(*extract.Extractor)),
		wire.Bind(new(httpiface.ChatService), new(*docchat.Service)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
