package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"voice-lead-agent/handler"
	"voice-lead-agent/internal/config"
	"voice-lead-agent/internal/httpserver"
	"voice-lead-agent/internal/integrations/langdetect"
	"voice-lead-agent/internal/integrations/openai"
	"voice-lead-agent/internal/integrations/paramstore"
	"voice-lead-agent/internal/logging"
	"voice-lead-agent/internal/metrics"
	"voice-lead-agent/internal/usecase"
	"voice-lead-agent/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Configuration (read only here) ----
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	apiKey, err := resolveAPIKey(ctx, cfg)
	if err != nil {
		logger.Error("failed to resolve OpenAI credential", "err", err)
		os.Exit(1)
	}

	// ---- Metrics ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		logger.Error("failed to register metrics", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	openaiOpts := []openai.Option{openai.WithTimeout(cfg.CompletionTimeout)}
	if cfg.OpenAIBaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	openaiClient, err := openai.NewClient(apiKey, openaiOpts...)
	if err != nil {
		logger.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Service ----
	replyService, err := usecase.NewReplyService(
		langdetect.New(),
		openaiClient,
		cfg.Model,
		cfg.MaxTokens,
		usecase.WithLogger(logger),
		usecase.WithRecorder(m),
	)
	if err != nil {
		logger.Error("failed to create reply service", "err", err)
		os.Exit(1)
	}
	processor, err := webhook.NewProcessor(replyService, webhook.WithLogger(logger), webhook.WithObserver(m))
	if err != nil {
		logger.Error("failed to create webhook processor", "err", err)
		os.Exit(1)
	}

	// ---- Runtime ----
	if cfg.Runtime == config.RuntimeLambda {
		h, err := handler.NewHandler(processor, logger)
		if err != nil {
			logger.Error("failed to create handler", "err", err)
			os.Exit(1)
		}
		lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx))
		return
	}

	router, err := httpserver.NewRouter(processor, logger, reg)
	if err != nil {
		logger.Error("failed to create router", "err", err)
		os.Exit(1)
	}
	if err := httpserver.NewServer(cfg.ListenAddr, router, logger).Run(ctx); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func resolveAPIKey(ctx context.Context, cfg config.Config) (string, error) {
	if cfg.OpenAIAPIKey != "" {
		return cfg.OpenAIAPIKey, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return "", err
	}
	return ssmClient.ResolveSecret(ctx, cfg.OpenAIAPIKeyParam)
}
