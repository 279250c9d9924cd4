package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/brmartins/sabia/internal/config"
	"github.com/brmartins/sabia/internal/httpapi"
	"github.com/brmartins/sabia/internal/intent"
	"github.com/brmartins/sabia/internal/knowledge"
	"github.com/brmartins/sabia/internal/llm"
	"github.com/brmartins/sabia/internal/memory"
	"github.com/brmartins/sabia/internal/observability"
	"github.com/brmartins/sabia/internal/resolver"
	"github.com/brmartins/sabia/internal/session"
	"github.com/brmartins/sabia/internal/transcript"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Sessions *session.Manager
	Resolver *resolver.Resolver
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	knowledgeStore, err := knowledge.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("knowledge store init failed: %w", err)
	}

	if cfg.KnowledgeSeedFile != "" {
		inserted, err := knowledge.SeedFromFile(ctx, knowledgeStore, cfg.KnowledgeSeedFile)
		if err != nil {
			_ = knowledgeStore.Close()
			return nil, fmt.Errorf("knowledge seed failed: %w", err)
		}
		log.Printf("knowledge store seeded with %d entries from %s", inserted, cfg.KnowledgeSeedFile)
	}

	transcriptStore, err := transcript.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = knowledgeStore.Close()
		return nil, fmt.Errorf("transcript store init failed: %w", err)
	}

	generator, err := llm.NewClient(llm.Config{
		Mode:    cfg.LLMMode,
		URL:     cfg.LLMURL,
		APIKey:  cfg.LLMAPIKey,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		_ = transcriptStore.Close()
		_ = knowledgeStore.Close()
		return nil, fmt.Errorf("llm client init failed: %w", err)
	}

	var classifier intent.Classifier = intent.Disabled{}
	if cfg.IntentCatalogFile != "" {
		kc, err := intent.LoadCatalog(cfg.IntentCatalogFile, cfg.IntentConfidenceThreshold)
		if err != nil {
			_ = transcriptStore.Close()
			_ = knowledgeStore.Close()
			return nil, fmt.Errorf("intent catalog load failed: %w", err)
		}
		classifier = kc
		log.Printf("intent classifier enabled from %s (threshold %.2f)", cfg.IntentCatalogFile, cfg.IntentConfidenceThreshold)
	}

	buffers := memory.NewBufferStore(cfg.MemoryWindow)

	res := resolver.New(resolver.Config{
		Model:           cfg.LLMModel,
		Temperature:     cfg.LLMTemperature,
		SampleLimit:     cfg.KnowledgeSampleLimit,
		GenerateTimeout: cfg.LLMTimeout,
	}, knowledgeStore, buffers, transcriptStore, classifier, generator, metrics)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, sessions, res, buffers, transcriptStore, metrics)

	cleanup := func() error {
		var errs []string
		if err := transcriptStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := knowledgeStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Sessions: sessions,
		Resolver: res,
		Metrics:  metrics,
		Cleanup:  cleanup,
	}, nil
}
