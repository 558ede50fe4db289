package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/martin/clipforge/internal/config"
	"github.com/martin/clipforge/internal/server"
)

var (
	serveConfigPath   string
	serveAddr         string
	serveUseBrowser   bool
	serveWhisperModel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for submitting video jobs, streaming their progress, and downloading finished clips.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by environment variables)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use headless browser for pages that render with JavaScript (requires Chrome)")
	serveCmd.Flags().StringVar(&serveWhisperModel, "whisper-model", "base", "Whisper model size for subtitle alignment")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator, cleanup, err := buildOrchestrator(ctx, cfg, stackOptions{
		useBrowser:   serveUseBrowser,
		whisperModel: serveWhisperModel,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	// Re-queue jobs interrupted by the last shutdown before accepting new ones.
	if err := orchestrator.Recover(ctx); err != nil {
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}
	orchestrator.Start(ctx)

	return server.New(cfg.Addr, orchestrator).Start()
}
