package main

import (
	"context"
	"fmt"
	"log"

	"github.com/martin/clipforge/internal/config"
	"github.com/martin/clipforge/internal/db"
	"github.com/martin/clipforge/internal/llm"
	"github.com/martin/clipforge/internal/media"
	"github.com/martin/clipforge/internal/pipeline"
	"github.com/martin/clipforge/internal/research"
	"github.com/martin/clipforge/internal/scripting"
)

// stackOptions carries the CLI flags shared by serve and create.
type stackOptions struct {
	useBrowser   bool
	whisperModel string
}

// buildOrchestrator wires the full pipeline from configuration: store, LLM
// client, research connectors, script writer, and media producer. The returned
// cleanup closes the store and LLM client.
func buildOrchestrator(ctx context.Context, cfg *config.Config, opts stackOptions) (*pipeline.Orchestrator, func(), error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.TemplateCatalog == "" {
		return nil, nil, fmt.Errorf("TEMPLATE_CATALOG must point to a YAML catalog of background templates")
	}

	var store db.Store
	if cfg.DatabaseURL != "" {
		pg, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		store = pg
	} else {
		log.Println("DATABASE_URL not set; using in-memory store (jobs do not survive restarts)")
		store = db.NewMemoryStore()
	}

	client, err := llm.NewGeminiClient(ctx, cfg.APIKey)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create LLM client: %w", err)
	}
	cleanup := func() {
		client.Close()
		store.Close()
	}

	connectors, err := buildConnectors(ctx, cfg, opts.useBrowser)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	researcher := research.NewService(connectors, cfg.CallTimeout, cfg.MaxSnippets, cfg.Verbose)
	writer := scripting.NewWriter(client, cfg.MinVideoSeconds, cfg.MaxVideoSeconds, cfg.Verbose)

	producer, err := buildProducer(cfg, opts.whisperModel)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return pipeline.NewOrchestrator(store, researcher, writer, producer, cfg), cleanup, nil
}

// buildConnectors assembles the research sources. Wikipedia and arXiv need no
// credentials; web search and transcript lookup are skipped without a Google
// Custom Search key.
func buildConnectors(ctx context.Context, cfg *config.Config, useBrowser bool) ([]research.Connector, error) {
	connectors := []research.Connector{
		research.NewWikipediaConnector(cfg.CallTimeout),
		research.NewArxivConnector(cfg.CallTimeout),
	}

	if cfg.SearchKey != "" && cfg.SearchCX != "" {
		web, err := research.NewWebConnector(ctx, cfg.SearchKey, cfg.SearchCX)
		if err != nil {
			return nil, fmt.Errorf("create web search connector: %w", err)
		}
		connectors = append(connectors, web)

		transcript, err := research.NewTranscriptConnector(ctx, cfg.SearchKey, cfg.SearchCX, cfg.CallTimeout, useBrowser)
		if err != nil {
			return nil, fmt.Errorf("create transcript connector: %w", err)
		}
		connectors = append(connectors, transcript)
	} else {
		log.Println("GOOGLE_SEARCH_API_KEY/GOOGLE_SEARCH_CX not set; web and transcript sources disabled")
	}

	return connectors, nil
}

func buildProducer(cfg *config.Config, whisperModel string) (*pipeline.MediaProducer, error) {
	synth, err := media.NewSynthesizer(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}
	composer, err := media.NewComposer(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("create composer: %w", err)
	}
	aligner := media.NewAligner(whisperModel, cfg.Verbose)

	templates, err := media.LoadCatalog(cfg.TemplateCatalog)
	if err != nil {
		return nil, fmt.Errorf("load template catalog: %w", err)
	}
	var music *media.Catalog
	if cfg.MusicCatalog != "" {
		music, err = media.LoadCatalog(cfg.MusicCatalog)
		if err != nil {
			return nil, fmt.Errorf("load music catalog: %w", err)
		}
	}

	return pipeline.NewMediaProducer(synth, aligner, composer, templates, music, cfg.GapTolerance), nil
}
