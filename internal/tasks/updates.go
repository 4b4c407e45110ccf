package tasks

import (
	"fmt"
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
	FetchProfile Phase = iota
	FetchMovies
	BuildCatalog
	WriteExport
	DownloadPoster
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchMovies:
		return "fetch_movies"
	case BuildCatalog:
		return "build_catalog"
	case WriteExport:
		return "write_export"
	case DownloadPoster:
		return "download_poster"
	default:
		return ""
	}
}

func fetchProfileUpdate(step, total int, username string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching profile (%s)...", username),
	}
}

func fetchMoviesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMovies,
		Step:    step,
		Total:   total,
		Message: "Fetching movie catalog...",
	}
}

func cachedMoviesUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMovies,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Using cached catalog (%d movies)", count),
	}
}

func buildCatalogUpdate(step, total int, c *Catalog) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildCatalog,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Catalog ready: %d movies, %d favorites", c.Len(), len(c.Favorites())),
		Data:    c,
	}
}

func writeExportUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Writing %s...", path),
	}
}

func posterSavedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadPoster,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Saved poster for %s", title),
	}
}

func posterFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadPoster,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Poster for %s failed: %v", title, err),
		Data:    err,
	}
}
