// Command sundial runs the personal assistant server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sundial-ai/sundial/agents"
	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/config"
	"github.com/sundial-ai/sundial/llm"
	"github.com/sundial-ai/sundial/middleware"
	"github.com/sundial-ai/sundial/observability"
	"github.com/sundial-ai/sundial/server"
	"github.com/sundial-ai/sundial/session"
	"github.com/sundial-ai/sundial/tools"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	observability.ConfigureLogging(parseLevel(cfg.Logging.Level), cfg.Logging.Structured, true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracing("sundial", cfg.Logging.TraceConsole)
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	if _, err := observability.InitMetrics("sundial"); err != nil {
		return fmt.Errorf("metrics init failed: %w", err)
	}

	model, goalModel, closeLLM, err := buildLLMs(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLLM()

	sessions, closeSessions, err := buildSessions(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	var search tools.SearchClient
	if cfg.Search.APIKey != "" && cfg.Search.EngineID != "" {
		search, err = tools.NewGoogleSearch(ctx, cfg.Search.APIKey, cfg.Search.EngineID)
		if err != nil {
			return fmt.Errorf("search init failed: %w", err)
		}
	} else {
		slog.Warn("web search disabled: SEARCH_API_KEY or SEARCH_ENGINE_ID not set")
	}

	a, err := agents.New(agents.Config{
		AppName:  "sundial",
		LLM:      model,
		GoalLLM:  goalModel,
		Search:   search,
		Sessions: sessions,
		Wrap: func(agent assistant.Agent) assistant.Agent {
			agent = observability.NewTracingMiddleware(agent, "")
			withMetrics, err := observability.NewMetricsMiddleware(agent)
			if err != nil {
				slog.Warn("metrics middleware disabled", "error", err)
			} else {
				agent = withMetrics
			}
			return middleware.NewTimeoutDecorator(agent, middleware.TimeoutConfig{
				Timeout: cfg.Server.TurnTimeout,
			})
		},
	})
	if err != nil {
		return fmt.Errorf("assistant init failed: %w", err)
	}

	var serverOpts []server.Option
	if cfg.Logging.AuditPath != "" {
		audit, closeAudit, err := observability.OpenAuditLog(cfg.Logging.AuditPath)
		if err != nil {
			return fmt.Errorf("audit log init failed: %w", err)
		}
		defer closeAudit.Close()
		serverOpts = append(serverOpts, server.WithAuditLog(audit))
	}

	srv := server.New(a, cfg.Server.Addr, serverOpts...)
	srv.Start()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// buildLLMs constructs the provider-backed models with the retry policy.
func buildLLMs(ctx context.Context, cfg *config.Config) (model, goalModel llm.LLM, closer func(), err error) {
	retry := llm.DefaultRetryConfig()
	closer = func() {}

	switch cfg.Models.Provider {
	case "openai":
		base := llm.NewOpenAILLM(cfg.Models.APIKey, cfg.Models.Default)
		model = llm.NewRetryLLM(base, retry)
		goalModel = model
		if cfg.Models.Goal != "" && cfg.Models.Goal != cfg.Models.Default {
			goalModel = llm.NewRetryLLM(llm.NewOpenAILLM(cfg.Models.APIKey, cfg.Models.Goal), retry)
		}
		return model, goalModel, closer, nil

	default:
		base, err := llm.NewGeminiLLM(ctx, cfg.Models.APIKey, cfg.Models.Default)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("gemini init failed: %w", err)
		}
		model = llm.NewRetryLLM(base, retry)
		goalModel = model
		closers := []func() error{base.Close}

		if cfg.Models.Goal != "" && cfg.Models.Goal != cfg.Models.Default {
			goalBase, err := llm.NewGeminiLLM(ctx, cfg.Models.APIKey, cfg.Models.Goal)
			if err != nil {
				base.Close()
				return nil, nil, nil, fmt.Errorf("gemini init failed: %w", err)
			}
			goalModel = llm.NewRetryLLM(goalBase, retry)
			closers = append(closers, goalBase.Close)
		}

		closer = func() {
			for _, c := range closers {
				if err := c(); err != nil {
					slog.Warn("llm close failed", "error", err)
				}
			}
		}
		return model, goalModel, closer, nil
	}
}

// buildSessions constructs the configured session backend.
func buildSessions(cfg *config.Config) (session.Service, func(), error) {
	if cfg.Session.Backend == "redis" {
		svc, err := session.NewRedisService(cfg.Session.RedisURL, "", cfg.Session.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis init failed: %w", err)
		}
		svc.SetMaxHistory(cfg.Session.MaxHistory)
		return svc, func() {
			if err := svc.Close(); err != nil {
				slog.Warn("redis close failed", "error", err)
			}
		}, nil
	}
	svc := session.NewInMemoryService()
	svc.SetMaxHistory(cfg.Session.MaxHistory)
	return svc, func() {}, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
