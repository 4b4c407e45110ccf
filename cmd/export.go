package main

import (
	"context"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ExportFavorites writes the session user's favorite movies to a file.
func (r *Runner) ExportFavorites(ctx context.Context, cmd *cli.Command) error {
	return r.export(ctx, cmd, tasks.ExportFavorites)
}

// ExportCatalog writes the whole catalog to a file.
func (r *Runner) ExportCatalog(ctx context.Context, cmd *cli.Command) error {
	return r.export(ctx, cmd, tasks.ExportCatalog)
}

func (r *Runner) export(ctx context.Context, cmd *cli.Command, kind tasks.ExportKind) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = r.config.Export.Dir
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.reportProgress(progress, done)

	res, err := r.library.Export(ctx, progress, kind, tasks.ExportOpts{
		Format:  format,
		Path:    output,
		Posters: cmd.Bool("posters"),
		Client:  r.httpClient,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d movies to %s\n", len(res.Snapshot.Movies), res.Path)
	if res.Posters != nil {
		r.writePlain("Posters: %d/%d downloaded\n", res.Posters.Downloaded, res.Posters.Total)
	}
	return nil
}
