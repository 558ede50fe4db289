package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/martin/clipforge/internal/config"
	"github.com/martin/clipforge/internal/observability"
	"github.com/martin/clipforge/internal/types"
)

var (
	createConfigPath   string
	createTone         float64
	createOut          string
	createUseBrowser   bool
	createWhisperModel string
	createVerbose      bool
)

var createCmd = &cobra.Command{
	Use:   "create <topic>",
	Short: "Generate a single video end-to-end",
	Long: `Run the full pipeline once for the given topic: research -> scripting -> production.

Progress is printed as the job advances. The finished video stays in the work directory unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createConfigPath, "config", "", "Path to config.json file")
	createCmd.Flags().Float64VarP(&createTone, "tone", "t", 0.5, "Tone from 0 (memey) to 1 (educational)")
	createCmd.Flags().StringVarP(&createOut, "out", "o", "", "Copy the finished video to this path")
	createCmd.Flags().BoolVar(&createUseBrowser, "use-browser", false, "Use headless browser for pages that render with JavaScript (requires Chrome)")
	createCmd.Flags().StringVar(&createWhisperModel, "whisper-model", "base", "Whisper model size for subtitle alignment")
	createCmd.Flags().BoolVarP(&createVerbose, "verbose", "v", false, "Print detailed stage output")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	topic := args[0]
	if createTone < 0 || createTone > 1 {
		return fmt.Errorf("--tone must be between 0 and 1")
	}

	cfg, err := config.Load(createConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = createVerbose
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator, cleanup, err := buildOrchestrator(ctx, cfg, stackOptions{
		useBrowser:   createUseBrowser,
		whisperModel: createWhisperModel,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	job, err := orchestrator.Submit(ctx, topic, createTone, nil)
	if err != nil {
		return err
	}

	// Subscribe before the workers start so no event is missed.
	events, unsubscribe := orchestrator.Subscribe(job.ID)
	defer unsubscribe()
	orchestrator.Start(ctx)

	fmt.Printf("Job %s created for %q\n", job.ID, topic)
	for ev := range events {
		fmt.Printf("  [%s] %s\n", ev.Status, ev.Message)
		if ev.Status.Terminal() {
			break
		}
	}

	final, err := orchestrator.Get(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load finished job: %w", err)
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintResearchBundle(final.Research)
		printer.PrintScript(final.Script)
		printer.PrintSubtitleTrack(final.Subtitles)
		printer.PrintRenderSummary(final.Output)
	}

	switch final.Status {
	case types.StatusSucceeded:
		out := final.Output.Path
		if createOut != "" {
			if err := copyFile(final.Output.Path, createOut); err != nil {
				return fmt.Errorf("copy video to %s: %w", createOut, err)
			}
			out = createOut
		}
		fmt.Printf("Done: %s (%.1fs)\n", out, final.Output.Seconds)
		return nil
	case types.StatusFailed:
		return fmt.Errorf("job failed: %s", final.Error.Error())
	default:
		return fmt.Errorf("job ended with status %s", final.Status)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
