package media

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/martin/clipforge/internal/types"
)

// Word is a single spoken word with its timing.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// ChunkWords groups timed words into caption-sized chunks. A word ending in
// punctuation or longer than 7 characters stands alone; two consecutive words
// of at most 5 characters each are paired.
func ChunkWords(words []Word) []types.Caption {
	var captions []types.Caption
	i := 0
	for i < len(words) {
		current := words[i]

		if endsWithPunct(current.Text) || len(current.Text) > 7 {
			captions = append(captions, types.Caption{Start: current.Start, End: current.End, Text: current.Text})
			i++
			continue
		}

		if i+1 < len(words) {
			next := words[i+1]
			if len(current.Text) <= 5 && len(next.Text) <= 5 {
				captions = append(captions, types.Caption{
					Start: current.Start,
					End:   next.End,
					Text:  current.Text + " " + next.Text,
				})
				i += 2
				continue
			}
		}

		captions = append(captions, types.Caption{Start: current.Start, End: current.End, Text: current.Text})
		i++
	}
	return captions
}

// EvenSplit distributes the script's words uniformly across the narration
// duration. Used when transcription yields nothing usable.
func EvenSplit(text string, totalSeconds float64) []Word {
	fields := strings.Fields(text)
	if len(fields) == 0 || totalSeconds <= 0 {
		return nil
	}
	per := totalSeconds / float64(len(fields))
	words := make([]Word, len(fields))
	for i, f := range fields {
		words[i] = Word{
			Text:  f,
			Start: float64(i) * per,
			End:   float64(i+1) * per,
		}
	}
	return words
}

var srtTimeline = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3}) --> (\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

var srtTags = regexp.MustCompile(`<[^>]+>`)

// ParseSRT decodes SRT content into captions. Index lines and markup tags
// are discarded; multi-line cues are joined with spaces.
func ParseSRT(content string) ([]types.Caption, error) {
	var captions []types.Caption
	blocks := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		// First line may be a numeric index; the timeline follows it.
		tl := 0
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			tl = 1
		}
		if tl >= len(lines) {
			continue
		}
		m := srtTimeline.FindStringSubmatch(lines[tl])
		if m == nil {
			continue
		}

		start := srtSeconds(m[1], m[2], m[3], m[4])
		end := srtSeconds(m[5], m[6], m[7], m[8])

		text := strings.TrimSpace(srtTags.ReplaceAllString(strings.Join(lines[tl+1:], " "), ""))
		if text == "" {
			continue
		}
		captions = append(captions, types.Caption{Start: start, End: end, Text: text})
	}
	if len(captions) == 0 {
		return nil, fmt.Errorf("no caption entries found")
	}
	return captions, nil
}

// FormatSRT renders captions as an SRT document with highlighted text.
func FormatSRT(captions []types.Caption) string {
	var sb strings.Builder
	for i, c := range captions {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		sb.WriteString(srtTimestamp(c.Start))
		sb.WriteString(" --> ")
		sb.WriteString(srtTimestamp(c.End))
		sb.WriteString("\n<font color='#FFFF00'>")
		sb.WriteString(c.Text)
		sb.WriteString("</font>\n\n")
	}
	return strings.TrimSpace(sb.String())
}

func srtSeconds(h, m, s, ms string) float64 {
	hi, _ := strconv.Atoi(h)
	mi, _ := strconv.Atoi(m)
	si, _ := strconv.Atoi(s)
	msi, _ := strconv.Atoi(ms)
	return float64(hi)*3600 + float64(mi)*60 + float64(si) + float64(msi)/1000
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	ms := int((seconds - float64(total)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", total/3600, (total%3600)/60, total%60, ms)
}

func endsWithPunct(word string) bool {
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?', ',', ';', ':':
		return true
	}
	return false
}
