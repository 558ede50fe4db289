// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/martin/clipforge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResearchBundle outputs a human-readable summary of collected research.
func (p *Printer) PrintResearchBundle(bundle *types.ResearchBundle) {
	if bundle == nil || len(bundle.Snippets) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Topic:    %s\n", bundle.Topic))
	sb.WriteString(fmt.Sprintf("Snippets: %d\n", len(bundle.Snippets)))
	sb.WriteString("\n")

	count := min(len(bundle.Snippets), maxItemsToShow)
	for i := 0; i < count; i++ {
		snip := bundle.Snippets[i]
		title := snip.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("    [%s] score %.2f\n", snip.Source, snip.Score))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(bundle.Snippets) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more snippets", len(bundle.Snippets)-maxItemsToShow))
	}

	p.printBox("RESEARCH BUNDLE", sb.String())
}

// PrintScript outputs the generated script beat by beat.
func (p *Printer) PrintScript(script *types.Script) {
	if script == nil || len(script.Beats) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tone:     %s\n", script.ToneBand))
	sb.WriteString(fmt.Sprintf("Duration: %.1fs across %d beats\n\n", script.TotalSeconds(), len(script.Beats)))

	for _, beat := range script.Beats {
		text := beat.Text
		if len(text) > 40 {
			text = text[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("%-4s %4.1fs  %s\n", beat.Role, beat.Seconds, text))
	}

	p.printBox("GENERATED SCRIPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSubtitleTrack outputs caption timing for the aligned narration.
func (p *Printer) PrintSubtitleTrack(track *types.SubtitleTrack) {
	if track == nil || len(track.Captions) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Captions: %d\n\n", len(track.Captions)))

	count := min(len(track.Captions), maxItemsToShow)
	for i := 0; i < count; i++ {
		cap := track.Captions[i]
		text := cap.Text
		if len(text) > 35 {
			text = text[:32] + "..."
		}
		sb.WriteString(fmt.Sprintf("%6.2f-%6.2f  %s\n", cap.Start, cap.End, text))
	}

	if len(track.Captions) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more captions", len(track.Captions)-maxItemsToShow))
	}

	p.printBox("SUBTITLE TRACK", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRenderSummary outputs the final video's vital statistics.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRenderSummary(video *types.RenderedVideo) {
	if video == nil {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO VIDEO PRODUCED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Path:     %s\n", video.Path))
	sb.WriteString(fmt.Sprintf("Duration: %.1fs\n", video.Seconds))
	sb.WriteString(fmt.Sprintf("Size:     %.1f MB\n", float64(video.SizeBytes)/(1024*1024)))
	fingerprint := video.SHA256
	if len(fingerprint) > 16 {
		fingerprint = fingerprint[:16] + "..."
	}
	sb.WriteString(fmt.Sprintf("SHA-256:  %s", fingerprint))

	p.printBox("RENDERED VIDEO", sb.String())
}
