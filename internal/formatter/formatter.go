// package formatter renders watchlist exports as JSON, CSV, Markdown or plain text and writes them to disk
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/spf13/afero"
)

// Format is an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or a common alias (md, text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ImageURLFunc resolves a poster path to an absolute URL.
type ImageURLFunc func(path string) string

// WatchlistExport is a snapshot of a watchlist ready for rendering.
type WatchlistExport struct {
	Owner      string                  `json:"owner,omitempty"`
	ExportedAt time.Time               `json:"exported_at"`
	Entries    []models.WatchlistEntry `json:"entries"`
}

// NewWatchlistExport snapshots entries for owner at the current time.
func NewWatchlistExport(owner string, entries []models.WatchlistEntry) *WatchlistExport {
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}
	return &WatchlistExport{Owner: owner, ExportedAt: time.Now().UTC(), Entries: entries}
}

// FormatRating renders a 0-10 vote average with one decimal, or "-" when unrated.
func FormatRating(vote float64) string {
	if vote <= 0 {
		return "-"
	}
	return strconv.FormatFloat(vote, 'f', 1, 64)
}

// Year returns the first four characters of a YYYY-MM-DD date, or "" if it is shorter.
func Year(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// ExportToJSON renders the export as indented JSON.
func ExportToJSON(export *WatchlistExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts the export to CSV with columns: Key, Source, Type, Title, Date, Rating, Poster, VideoURL
func ExportToCSV(export *WatchlistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Key", "Source", "Type", "Title", "Date", "Rating", "Poster", "VideoURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range export.Entries {
		e = e.Normalize()
		record := []string{
			e.Key().String(),
			string(e.Source),
			string(e.MediaType),
			e.Title,
			e.DisplayDate(),
			FormatRating(e.VoteAverage),
			e.PosterPath,
			e.VideoURL,
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

// ExportToMarkdown converts the export to Markdown, linking posters through imageURL when it is non-nil.
func ExportToMarkdown(export *WatchlistExport, imageURL ImageURLFunc) ([]byte, error) {
	var buf bytes.Buffer

	title := "Watchlist"
	if export.Owner != "" {
		title = export.Owner + "'s Watchlist"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Titles**: %d\n", len(export.Entries))
	fmt.Fprintf(&buf, "**Exported**: %s\n\n", export.ExportedAt.Format(time.RFC1123))

	if len(export.Entries) == 0 {
		buf.WriteString("_Nothing saved yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Title | Type | Year | Rating |\n")
	buf.WriteString("|---|-------|------|------|--------|\n")
	for i, e := range export.Entries {
		e = e.Normalize()
		label := escapeCell(e.Title)
		if e.VideoURL != "" {
			label = fmt.Sprintf("[%s](%s)", label, e.VideoURL)
		}
		kind := string(e.MediaType)
		if e.Source == models.SourceCustom {
			kind += " (custom)"
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s |\n", i+1, label, kind, Year(e.DisplayDate()), FormatRating(e.VoteAverage))
	}

	if imageURL != nil {
		buf.WriteString("\n## Posters\n\n")
		for _, e := range export.Entries {
			if url := imageURL(e.PosterPath); url != "" {
				fmt.Fprintf(&buf, "![%s](%s)\n", escapeCell(e.Normalize().Title), url)
			}
		}
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportToText converts the export to plain text, one title per line.
func ExportToText(export *WatchlistExport) ([]byte, error) {
	var buf bytes.Buffer

	if export.Owner != "" {
		fmt.Fprintf(&buf, "Watchlist: %s\n", export.Owner)
	}
	fmt.Fprintf(&buf, "Titles: %d\n\n", len(export.Entries))

	for i, e := range export.Entries {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, Line(e))
	}

	return buf.Bytes(), nil
}

// Line renders one entry as "Title (Year) [type] ★ rating", the form used by text exports and the CLI.
func Line(e models.WatchlistEntry) string {
	e = e.Normalize()
	var b strings.Builder
	b.WriteString(e.Title)
	if y := Year(e.DisplayDate()); y != "" {
		fmt.Fprintf(&b, " (%s)", y)
	}
	kind := string(e.MediaType)
	if e.Source == models.SourceCustom {
		kind = "custom"
	}
	fmt.Fprintf(&b, " [%s] ★ %s", kind, FormatRating(e.VoteAverage))
	return b.String()
}

// Render dispatches to the exporter for format.
func Render(export *WatchlistExport, format Format, imageURL ImageURLFunc) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, imageURL)
	case FormatText:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders export in format and writes it to path on fs, creating parent directories.
//
// Defaults to watchlist.{ext} in the working directory.
func WriteExport(fs afero.Fs, export *WatchlistExport, format Format, path string, imageURL ImageURLFunc) (string, error) {
	if path == "" {
		path = "watchlist." + format.Ext()
	}

	data, err := Render(export, format, imageURL)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

// ManifestFile describes one file produced by a multi-format export.
type ManifestFile struct {
	Format Format `json:"format"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Manifest summarizes a multi-format export.
type Manifest struct {
	ExportedAt time.Time      `json:"exported_at"`
	Entries    int            `json:"entries"`
	Files      []ManifestFile `json:"files"`
}

// WriteManifest writes m as indented JSON to path on fs.
func WriteManifest(fs afero.Fs, m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
