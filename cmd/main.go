package main

import (
	"context"
	"log"
	"os"

	"nutriscan/config"
	"nutriscan/controllers"
	"nutriscan/routes"
	"nutriscan/services"
	"nutriscan/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	tp, err := utils.NewTracerProvider(cfg.TraceExporter, "nutriscan", os.Stderr)
	if err != nil {
		logger.Fatal("init tracing", zap.String("exporter", cfg.TraceExporter), zap.Error(err))
	}
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	vocab, err := config.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		logger.Fatal("load vocabulary", zap.String("path", cfg.VocabularyPath), zap.Error(err))
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("connect database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if db == nil {
		logger.Info("DB_DRIVER not set, analysis audit disabled")
	}

	ctx := context.Background()
	providers := services.DefaultProviders(cfg.Providers, cfg.ProviderTimeout, logger)
	resolver := services.NewNutritionResolver(providers, logger, services.WithTracerProvider(tp))
	extractor := services.NewFoodTextExtractor(services.NewLLMService(cfg.LLM), vocab, logger)
	audit := services.NewAuditService(db, logger)

	opts := []services.AnalysisOption{services.WithAudit(audit)}
	if cfg.RekognitionEnabled {
		rek, err := services.NewImageRecognitionService(ctx, cfg.AWSRegion)
		if err != nil {
			logger.Fatal("init rekognition", zap.Error(err))
		}
		opts = append(opts, services.WithRecognizer(rek))
	}
	if cfg.SNSTopicARN != "" {
		notifier, err := services.NewNotificationService(ctx, cfg.AWSRegion, cfg.SNSTopicARN, logger)
		if err != nil {
			logger.Fatal("init sns", zap.Error(err))
		}
		opts = append(opts, services.WithNotifier(notifier))
	}
	analysis := services.NewAnalysisService(extractor, resolver, logger, opts...)

	var off *services.OpenFoodFactsService
	for _, p := range providers {
		if o, ok := p.(*services.OpenFoodFactsService); ok {
			off = o
		}
	}

	r := routes.SetupRouter(cfg, routes.Handlers{
		Analysis:      controllers.NewAnalysisController(analysis, audit, cfg.AnalysisTimeout),
		Nutrition:     controllers.NewNutritionController(resolver, providers, extractor),
		OpenFoodFacts: controllers.NewOpenFoodFactsController(off),
		MCP:           controllers.NewMCPController(analysis, cfg.AnalysisTimeout),
	}, logger)

	logger.Info("server starting", zap.String("port", cfg.Port), zap.Int("providers", len(providers)))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
