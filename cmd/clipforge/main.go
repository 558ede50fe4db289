// Package main provides the entry point for the ClipForge video generation service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clipforge",
	Short: "ClipForge short-form video generator",
	Long:  "ClipForge turns a topic into a finished vertical short: it researches the topic, writes a timed narration script with an LLM, and renders a subtitled video with TTS narration over a background template.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
