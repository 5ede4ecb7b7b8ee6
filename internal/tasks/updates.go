package tasks

import (
	"fmt"

	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/services"
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
	FetchChart Phase = iota
	ResolveTracks
	BuildPlaylist
	WriteReport
)

func (p Phase) String() string {
	switch p {
	case FetchChart:
		return "fetch_chart"
	case ResolveTracks:
		return "resolve_tracks"
	case BuildPlaylist:
		return "build_playlist"
	case WriteReport:
		return "write_report"
	default:
		return ""
	}
}

func fetchChartUpdate(date string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchChart,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading Billboard Hot 100 for %s...", date),
	}
}

func chartLoadedUpdate(date string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchChart,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d chart entries for %s", count, date),
	}
}

func resolveStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    0,
		Total:   total,
		Message: "Resolving chart entries against Spotify...",
	}
}

func resolveTrackUpdate(step, total int, e chart.Entry, matched bool) ProgressUpdate {
	mark := "✓"
	if !matched {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, e.Artist, e.Title),
	}
}

func buildPlaylistUpdate(name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Building playlist %q (%d tracks)...", name, tracks),
	}
}

func playlistReadyUpdate(pl *services.Playlist, created bool) ProgressUpdate {
	verb := "Updated"
	if created {
		verb = "Created"
	}
	return ProgressUpdate{
		Phase:   BuildPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s playlist: %s (ID: %s)", verb, pl.Name, pl.ID),
		Data:    pl,
	}
}

func writeReportUpdate(missing int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteReport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d chart entries left unmatched", missing),
	}
}
