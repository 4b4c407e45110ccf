package tasks

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/desertthunder/flix/internal/formatter"
)

// ExportOpts configures [Library.Export].
type ExportOpts struct {
	Format formatter.Format
	Path   string // File or directory; empty writes {username}_{kind}{ext} to the working directory

	// Posters downloads movie posters next to the export and links them from Markdown.
	Posters bool
	Client  *http.Client
}

// ExportResult describes a finished export.
type ExportResult struct {
	Snapshot *Snapshot
	Path     string
	Posters  *PosterResult
}

// Export snapshots the session user's movies and writes them to disk.
func (l *Library) Export(ctx context.Context, progress chan<- ProgressUpdate, kind ExportKind, opts ExportOpts) (*ExportResult, error) {
	const total = 4

	snap, err := l.snapshot(ctx, progress, kind, total)
	if err != nil {
		return nil, err
	}

	doc := &formatter.Export{
		Kind:       kind.String(),
		Username:   snap.User.Username,
		ExportedAt: snap.ExportedAt,
		Movies:     snap.Movies,
	}
	result := &ExportResult{Snapshot: snap}

	target := formatter.ResolveExportPath(doc, opts.Format, opts.Path)

	var posters map[string]string
	if opts.Posters {
		dir := filepath.Join(filepath.Dir(target), "posters")
		res, err := DownloadPosters(ctx, progress, snap.Movies, PosterOpts{OutputDir: dir, Client: opts.Client})
		if err != nil {
			return nil, fmt.Errorf("failed to download posters: %w", err)
		}
		for id, err := range res.Errors {
			l.logger.Warn("poster download failed", "movie", id, "error", err)
		}
		result.Posters = res

		posters = make(map[string]string, len(res.Paths))
		for id, p := range res.Paths {
			posters[id] = filepath.Join("posters", filepath.Base(p))
		}
	}

	sendProgress(progress, writeExportUpdate(total, total, target))
	path, err := formatter.WriteExport(doc, opts.Format, target, posters)
	if err != nil {
		return nil, err
	}
	result.Path = path

	l.logger.Info("export written", "kind", kind, "movies", len(snap.Movies), "path", path)
	return result, nil
}
