package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/spf13/afero"
)

func testExport() *WatchlistExport {
	return &WatchlistExport{
		Owner:      "Ada Lovelace",
		ExportedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Entries: []models.WatchlistEntry{
			{ID: 603, Title: "The Matrix", PosterPath: "/matrix.jpg", VoteAverage: 8.2, ReleaseDate: "1999-03-30", MediaType: models.MediaMovie},
			{ID: 1399, Name: "Game | Thrones", PosterPath: "/got.jpg", VoteAverage: 8.4, FirstAirDate: "2011-04-17", MediaType: models.MediaTV},
			{ID: 1700000000000, Source: models.SourceCustom, Title: "Home Video", ReleaseDate: "2025-01-01", MediaType: models.MediaMovie, VideoURL: "https://v.example/home.mp4"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" text ", FormatText},
		{"txt", FormatText},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if FormatMarkdown.Ext() != "md" || FormatCSV.Ext() != "csv" {
		t.Error("unexpected extensions")
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded WatchlistExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded.Entries) != 3 || decoded.Owner != "Ada Lovelace" {
			t.Errorf("unexpected decoded export %+v", decoded)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Key,Source,Type,Title,Date,Rating,Poster,VideoURL") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "movie:603,catalog,movie,The Matrix,1999-03-30,8.2,/matrix.jpg,") {
			t.Errorf("CSV missing catalog row, got: %s", output)
		}
		if !strings.Contains(output, "tv:1399,catalog,tv,Game | Thrones,2011-04-17") {
			t.Errorf("CSV missing tv row with name fallback, got: %s", output)
		}
		if !strings.Contains(output, "custom:1700000000000,custom,movie,Home Video") {
			t.Errorf("CSV missing custom row, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 4 {
			t.Errorf("expected header plus 3 rows, got %d lines", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without images", func(t *testing.T) {
			data, err := ExportToMarkdown(testExport(), nil)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Ada Lovelace's Watchlist",
				"**Titles**: 3",
				"| 1 | The Matrix | movie | 1999 | 8.2 |",
				`| 2 | Game \| Thrones | tv | 2011 | 8.4 |`,
				"[Home Video](https://v.example/home.mp4) | movie (custom) | 2025 | - |",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}
			if strings.Contains(output, "## Posters") {
				t.Error("posters section should be omitted without an image resolver")
			}
		})

		t.Run("with images", func(t *testing.T) {
			resolve := func(path string) string {
				if path == "" {
					return ""
				}
				return "https://img.test/w500" + path
			}
			data, _ := ExportToMarkdown(testExport(), resolve)
			output := string(data)
			if !strings.Contains(output, "![The Matrix](https://img.test/w500/matrix.jpg)") {
				t.Errorf("Markdown missing poster, got:\n%s", output)
			}
			if strings.Count(output, "![") != 2 {
				t.Errorf("entries without posters should be skipped, got:\n%s", output)
			}
		})

		t.Run("empty", func(t *testing.T) {
			data, _ := ExportToMarkdown(NewWatchlistExport("", nil), nil)
			if !strings.Contains(string(data), "# Watchlist") || !strings.Contains(string(data), "_Nothing saved yet._") {
				t.Errorf("unexpected empty export:\n%s", data)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Watchlist: Ada Lovelace",
			"Titles: 3",
			"1. The Matrix (1999) [movie] ★ 8.2",
			"3. Home Video (2025) [custom] ★ -",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Render unknown format", func(t *testing.T) {
		if _, err := Render(testExport(), Format("xml"), nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path, err := WriteExport(fs, testExport(), FormatMarkdown, "", nil)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != "watchlist.md" {
			t.Errorf("expected watchlist.md, got %s", path)
		}
		if ok, _ := afero.Exists(fs, path); !ok {
			t.Error("file not written")
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path, err := WriteExport(fs, testExport(), FormatCSV, "/exports/nested/list.csv", nil)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		data, _ := afero.ReadFile(fs, path)
		if !strings.HasPrefix(string(data), "Key,Source") {
			t.Errorf("unexpected file contents %s", data)
		}
	})

	t.Run("WriteFailure", func(t *testing.T) {
		fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
		if _, err := WriteExport(fs, testExport(), FormatText, "list.txt", nil); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		m := &Manifest{
			ExportedAt: time.Now(),
			Entries:    3,
			Files: []ManifestFile{
				{Format: FormatJSON, Path: "out/watchlist.json"},
				{Format: FormatCSV, Error: "disk full"},
			},
		}
		if err := WriteManifest(fs, m, "manifest.json"); err != nil {
			t.Fatal(err)
		}

		var decoded Manifest
		data, _ := afero.ReadFile(fs, "manifest.json")
		if err := json.Unmarshal(data, &decoded); err != nil || len(decoded.Files) != 2 || decoded.Files[1].Error != "disk full" {
			t.Errorf("unexpected manifest %s (%v)", data, err)
		}
	})
}

func TestLine(t *testing.T) {
	tests := []struct {
		entry models.WatchlistEntry
		want  string
	}{
		{models.WatchlistEntry{ID: 1, Title: "Alien", ReleaseDate: "1979-05-25", VoteAverage: 8.1}, "Alien (1979) [movie] ★ 8.1"},
		{models.WatchlistEntry{ID: 2, Name: "Dark", MediaType: models.MediaTV}, "Dark [tv] ★ -"},
	}
	for _, tt := range tests {
		if got := Line(tt.entry); got != tt.want {
			t.Errorf("Line() = %q, want %q", got, tt.want)
		}
	}
}
