package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/config"
	"github.com/jackzampolin/redpen/internal/home"
	"github.com/jackzampolin/redpen/internal/jobs"
	"github.com/jackzampolin/redpen/internal/metrics"
	"github.com/jackzampolin/redpen/internal/prompts"
	"github.com/jackzampolin/redpen/internal/prompts/copyedit"
	"github.com/jackzampolin/redpen/internal/providers"
	"github.com/jackzampolin/redpen/internal/store"
	"github.com/jackzampolin/redpen/internal/svcctx"
	"github.com/jackzampolin/redpen/internal/tokens"
)

// newLogger builds the process logger from --log-level and --log-format.
func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// setup builds the shared services and attaches them to the command context.
// Commands call it from RunE; repeated calls return the same services.
func setup(cmd *cobra.Command) (*svcctx.Services, error) {
	ctx := cmd.Context()
	if s := svcctx.ServicesFrom(ctx); s != nil {
		return s, nil
	}

	logger, err := newLogger(logLevel, logFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	cm, err := config.NewManager(cfgFile, h.Path(), logger)
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	st, err := store.Open(ctx, store.Config{
		Backend: cfg.Storage.Backend,
		Home:    h,
		Redis: store.RedisConfig{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Prefix:   cfg.Storage.RedisPrefix,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}

	gen, err := newGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}

	svcs := &svcctx.Services{
		Config:    cm,
		Home:      h,
		Logger:    logger,
		Store:     st,
		Generator: gen,
		Limiter:   providers.NewRateLimiter(cfg.LLM.RPS),
		Recorder:  metrics.NewRecorder(),
		Estimator: tokens.NewEstimator(tokens.Config{
			Exact:  cfg.LLM.ExactTokens,
			Model:  cfg.LLM.Model,
			Logger: logger,
		}),
	}
	svcs.JobManager = jobs.NewManager(jobs.ManagerConfig{
		Store:  st,
		Logger: logger,
		Scheduler: func(projectID string) jobs.SchedulerConfig {
			return schedulerConfig(svcs, projectID)
		},
	})

	cmd.SetContext(svcctx.WithServices(ctx, svcs))
	logger.Debug("services ready",
		"home", h.Path(),
		"config", cm.ConfigFile(),
		"store", cfg.Storage.Backend,
		"backend", gen.Name(),
		"model", cfg.LLM.Model)
	return svcs, nil
}

// newGenerator creates the configured generation backend.
func newGenerator(cfg config.LLMConfig) (providers.Generator, error) {
	switch cfg.Provider {
	case "openai", "":
		return providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxOutputTokens,
			Timeout:     cfg.Timeout,
		}), nil
	case providers.MockClientName:
		mock := providers.NewMockClient()
		mock.Latency = 0
		return mock, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want openai or mock)", cfg.Provider)
	}
}

// resolverFor returns a prompt resolver honoring the project's overrides.
func resolverFor(svcs *svcctx.Services, projectID string) *prompts.Resolver {
	r := prompts.NewResolver(svcs.Home.PromptsDir(projectID), svcs.Logger)
	copyedit.RegisterPrompts(r)
	return r
}

// schedulerConfig builds a run configuration from the current config.
func schedulerConfig(svcs *svcctx.Services, projectID string) jobs.SchedulerConfig {
	cfg := svcs.Config.Get()
	return jobs.SchedulerConfig{
		Generator:    svcs.Generator,
		Limiter:      svcs.Limiter,
		Recorder:     svcs.Recorder,
		Logger:       svcs.Logger,
		Style:        cfg.Processing.Style,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxOutputTokens,
		ContextLines: cfg.Processing.ContextLines,
		Retry: jobs.RetryConfig{
			MaxRetries: retriesSetting(cfg.Processing.MaxRetries),
			BaseDelay:  cfg.Processing.RetryBaseDelay,
			MaxDelay:   cfg.Processing.RetryMaxDelay,
		},
	}
}

// retriesSetting maps the configured retry count onto RetryConfig, where
// zero means "default" and negative disables retries.
func retriesSetting(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// systemPrompt resolves the system prompt for style, honoring overrides.
func systemPrompt(svcs *svcctx.Services, projectID, style string) (copyedit.Style, *prompts.ResolvedPrompt, error) {
	s, err := copyedit.ParseStyle(style)
	if err != nil {
		return "", nil, err
	}
	p, err := resolverFor(svcs, projectID).Resolve(copyedit.PromptKey(s))
	if err != nil {
		return "", nil, err
	}
	return s, p, nil
}
