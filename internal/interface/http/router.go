package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/doc-summarizer/internal/domain/auth"
	"github.com/yanqian/doc-summarizer/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = handler.maxUploadBytes
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		metricsMiddleware(),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	{
		optional := api.Group("", optionalAuthMiddleware(authSvc))
		optional.POST("/summaries", handler.Summarize)
		optional.POST("/summaries/stream", handler.SummarizeStream)
		optional.POST("/chat", handler.Chat)

		api.POST("/keywords", handler.Keywords)
		api.POST("/context", handler.SelectContext)

		protected := api.Group("", authMiddleware(authSvc))
		protected.GET("/history", handler.History)
		protected.POST("/documents", handler.UploadDocument)
		protected.GET("/documents/:id", handler.GetDocument)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
