package tasks

import (
	"fmt"

	"github.com/desertthunder/streamsavvy/internal/formatter"
	"github.com/desertthunder/streamsavvy/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadWatchlist Phase = iota
	FetchDetails
	ExportWatchlist
	CheckTrending
)

func (p Phase) String() string {
	switch p {
	case LoadWatchlist:
		return "load_watchlist"
	case FetchDetails:
		return "fetch_details"
	case ExportWatchlist:
		return "export_watchlist"
	case CheckTrending:
		return "check_trending"
	default:
		return ""
	}
}

func loadWatchlistUpdate(total, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadWatchlist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Refreshing %d titles (%d custom skipped)...", total, skipped),
	}
}

func refreshedUpdate(step, total int, entry models.WatchlistEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, entry.Title),
		Data:    entry,
	}
}

func refreshFailedUpdate(step, total int, entry models.WatchlistEntry, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, entry.Title, err),
	}
}

func exportingUpdate(step, total int, format formatter.Format) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportWatchlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting %s...", step, total, format),
	}
}

func exportedUpdate(step, total int, file formatter.ManifestFile) ProgressUpdate {
	if file.Error != "" {
		return ProgressUpdate{
			Phase:   ExportWatchlist,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, file.Format, file.Error),
		}
	}
	return ProgressUpdate{
		Phase:   ExportWatchlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, file.Path),
		Data:    file,
	}
}

func trendingUpdate(round int, added []models.Notification) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckTrending,
		Step:    round,
		Total:   0,
		Message: fmt.Sprintf("%d new trending titles", len(added)),
		Data:    added,
	}
}

func trendingFailedUpdate(round int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckTrending,
		Step:    round,
		Message: fmt.Sprintf("trending check failed: %v", err),
	}
}
