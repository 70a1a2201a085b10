// package formatter renders collected tracks to the output formats of tunex (JSON, CSV, Markdown,
// styled text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/desertthunder/tunex/internal/tasks"
)

// Format names an output format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// Formats lists the accepted format names, for flag help.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat validates a format name. Empty means JSON.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return JSON, nil
	case JSON, CSV, Markdown, Text:
		return f, nil
	case "md":
		return Markdown, nil
	case "txt":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, name)
	}
}

var styles = struct {
	title  lipgloss.Style
	index  lipgloss.Style
	artist lipgloss.Style
	detail lipgloss.Style
}{
	title:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
	index:  lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
	artist: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
	detail: lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true),
}

// Render converts a result to the given format.
//
// JSON of a single-track result is one object. Every other JSON result is an array, empty
// collections included.
func Render(result tasks.Result, format Format, pretty bool) ([]byte, error) {
	switch format {
	case JSON, "":
		return ToJSON(result, pretty)
	case CSV:
		return ToCSV(result)
	case Markdown:
		return ToMarkdown(result)
	case Text:
		return ToText(result)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// Write renders result and writes it to w in one call.
func Write(w io.Writer, result tasks.Result, format Format, pretty bool) error {
	data, err := Render(result, format, pretty)
	if err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteFile renders result into the file at path, replacing it.
func WriteFile(path string, result tasks.Result, format Format, pretty bool) error {
	var buf bytes.Buffer
	if err := Write(&buf, result, format, pretty); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ToJSON encodes the records of result.
func ToJSON(result tasks.Result, pretty bool) ([]byte, error) {
	if result.Single && len(result.Records) == 1 {
		return shared.MarshalJSON(result.Records[0], pretty)
	}

	records := result.Records
	if records == nil {
		records = []models.TrackWithFeatures{}
	}
	return shared.MarshalJSON(records, pretty)
}

var (
	trackColumns   = []string{"ID", "Name", "Artists", "Album", "Duration", "Popularity", "Explicit", "URI"}
	featureColumns = []string{
		"Danceability", "Energy", "Key", "Loudness", "Mode", "Speechiness", "Acousticness",
		"Instrumentalness", "Liveness", "Valence", "Tempo", "TimeSignature",
	}
)

// ToCSV writes one row per track. Feature columns are present when features were requested and
// left empty for tracks without features.
func ToCSV(result tasks.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := trackColumns
	if result.Features {
		headers = append(append([]string{}, trackColumns...), featureColumns...)
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range result.Records {
		record := []string{
			r.ID,
			r.Name,
			r.ArtistNames(),
			r.AlbumName(),
			shared.FormatDuration(r.DurationMS),
			strconv.Itoa(r.Popularity),
			strconv.FormatBool(r.Explicit),
			r.URI,
		}
		if result.Features {
			record = append(record, featureCells(r.Features)...)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func featureCells(f *models.AudioFeatures) []string {
	if f == nil {
		return make([]string, len(featureColumns))
	}
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		num(f.Danceability),
		num(f.Energy),
		strconv.Itoa(f.Key),
		num(f.Loudness),
		strconv.Itoa(f.Mode),
		num(f.Speechiness),
		num(f.Acousticness),
		num(f.Instrumentalness),
		num(f.Liveness),
		num(f.Valence),
		num(f.Tempo),
		strconv.Itoa(f.TimeSignature),
	}
}

func featureSummary(f *models.AudioFeatures) string {
	return fmt.Sprintf("tempo %.1f, key %d, energy %.2f, danceability %.2f, valence %.2f",
		f.Tempo, f.Key, f.Energy, f.Danceability, f.Valence)
}

func trackLine(r models.TrackWithFeatures) (artist, title string) {
	title = r.Name
	if album := r.AlbumName(); album != "" {
		title += fmt.Sprintf(" (%s)", album)
	}
	return r.ArtistNames(), title + fmt.Sprintf(" [%s]", shared.FormatDuration(r.DurationMS))
}

// ToMarkdown renders a numbered track list under a heading naming the source.
func ToMarkdown(result tasks.Result) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", result.Source))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(result.Records)))
	if result.Features {
		buf.WriteString("**Audio features**: yes\n")
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, r := range result.Records {
		artist, title := trackLine(r)
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, artist, title))
		if r.Features != nil {
			buf.WriteString(fmt.Sprintf("   - %s\n", featureSummary(r.Features)))
		}
	}

	return buf.Bytes(), nil
}

// ToText renders a styled track list for the terminal.
func ToText(result tasks.Result) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(styles.title.Render(fmt.Sprintf("%s (%d tracks)", result.Source, len(result.Records))))
	buf.WriteString("\n\n")

	for i, r := range result.Records {
		artist, title := trackLine(r)
		buf.WriteString(fmt.Sprintf("%s %s - %s\n", styles.index.Render(fmt.Sprintf("%3d.", i+1)), styles.artist.Render(artist), title))
		if r.Features != nil {
			buf.WriteString(fmt.Sprintf("     %s\n", styles.detail.Render(featureSummary(r.Features))))
		}
	}

	return buf.Bytes(), nil
}
