package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MoviesList prints the catalog with favorites marked.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.library.Catalog(ctx, tasks.LoadOpts{Offline: cmd.Bool("offline")})
	if err != nil {
		return err
	}

	genre := strings.TrimSpace(cmd.String("genre"))
	featured := cmd.Bool("featured")

	views := make([]models.MovieView, 0, catalog.Len())
	for _, mv := range catalog.Views() {
		if featured && !mv.Featured {
			continue
		}
		if genre != "" && !strings.EqualFold(mv.Genre.Name, genre) {
			continue
		}
		views = append(views, mv)
	}

	if cmd.Bool("json") {
		return r.writeJSON(views, true)
	}

	r.writePlainHeader(fmt.Sprintf("Movies (%d)", len(views)))
	if at := catalog.CachedAt(); !at.IsZero() {
		r.writePlain("Cached %s (%s ago)\n", at.Local().Format(time.DateTime), time.Since(at).Round(time.Minute))
	}
	for _, mv := range views {
		r.writeMovieLine(mv)
	}
	return nil
}

// MoviesShow prints a single movie looked up by title.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	var movie *models.Movie
	var err error
	if cmd.Bool("offline") {
		movie, err = r.library.CachedMovie(ctx, title)
	} else {
		movie, err = r.api.GetMovie(ctx, title)
	}
	if err != nil {
		return err
	}

	mv := models.MovieView{Movie: *movie}
	if sess, err := r.store.Read(ctx); err == nil {
		mv.IsFavorite = sess.User.HasFavorite(movie.ID)
	}

	if cmd.Bool("json") {
		return r.writeJSON(mv, true)
	}
	r.writeMovie(mv)
	return nil
}

// MoviesDirector prints a director's details.
func (r *Runner) MoviesDirector(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	d, err := r.api.GetDirector(ctx, name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(d, true)
	}

	r.writePlainHeader(d.Name)
	if d.Birthdate != nil {
		r.writePlain("Born: %s\n", d.Birthdate)
	}
	if d.Deathdate != nil {
		r.writePlain("Died: %s\n", d.Deathdate)
	}
	if d.Bio != "" {
		r.writePlainln("%s", d.Bio)
	}
	return nil
}

// MoviesGenre prints a genre's description.
func (r *Runner) MoviesGenre(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	g, err := r.api.GetGenre(ctx, name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(g, true)
	}

	r.writePlainHeader(g.Name)
	return r.writePlain("%s\n", g.Description)
}

// MoviesFavorites prints the session user's favorite movies.
func (r *Runner) MoviesFavorites(ctx context.Context, cmd *cli.Command) error {
	favs, err := r.library.Favorites(ctx, cmd.Bool("remote"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(favs, true)
	}

	r.writePlainHeader(fmt.Sprintf("Favorite movies (%d)", len(favs)))
	if len(favs) == 0 {
		return r.writePlain("No favorites yet. Add one with 'flix favorites add <title>'.\n")
	}
	for _, mv := range favs {
		r.writeMovieLine(mv)
	}
	return nil
}

// MoviesPoster downloads a movie's poster, or opens it in the browser with --open.
func (r *Runner) MoviesPoster(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	var movie *models.Movie
	var err error
	if cmd.Bool("offline") {
		movie, err = r.library.CachedMovie(ctx, title)
	} else {
		movie, err = r.api.GetMovie(ctx, title)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		if err := shared.OpenURL(movie.ImagePath); err != nil {
			return err
		}
		return r.writePlain("✓ Opened %s\n", movie.ImagePath)
	}

	path, err := formatter.WritePoster(ctx, r.httpClient, *movie, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("poster saved", "movie", movie.Title, "path", path)
	return r.writePlain("✓ Saved poster for %s to %s\n", movie.Title, path)
}

// MoviesPosters downloads posters for the catalog (or favorites) with a worker pool.
func (r *Runner) MoviesPosters(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.library.Catalog(ctx, tasks.LoadOpts{Offline: cmd.Bool("offline")})
	if err != nil {
		return err
	}

	views := catalog.Views()
	if cmd.Bool("favorites") {
		views = catalog.Favorites()
	}

	progress := make(chan tasks.ProgressUpdate, len(views))
	done := make(chan struct{})
	go r.reportProgress(progress, done)

	res, err := tasks.DownloadPosters(ctx, progress, views, tasks.PosterOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate-limit"),
		Client:     r.httpClient,
	})
	close(progress)
	<-done

	if res != nil {
		r.writePlain("✓ Downloaded %d/%d posters\n", res.Downloaded, res.Total)
		if res.Failed > 0 {
			errs := make([]error, 0, len(res.Errors))
			for id, e := range res.Errors {
				errs = append(errs, fmt.Errorf("%s: %w", id, e))
			}
			r.logger.Warn("some posters failed", "error", errors.Join(errs...))
		}
		if res.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", res.ManifestPath)
		}
	}
	return err
}

func (r *Runner) writeMovieLine(mv models.MovieView) {
	mark := " "
	if mv.IsFavorite {
		mark = "★"
	}
	r.writePlain("%s %-40s %-14s %-24s %s\n", mark, mv.Title, mv.Genre.Name, mv.Director.Name, mv.ID)
}

func (r *Runner) writeMovie(mv models.MovieView) {
	title := mv.Title
	if mv.IsFavorite {
		title = "★ " + title
	}
	r.writePlainHeader(title)
	r.writePlain("ID:       %s\n", mv.ID)
	r.writePlain("Genre:    %s\n", mv.Genre.Name)
	r.writePlain("Director: %s\n", mv.Director.Name)
	if mv.Featured {
		r.writePlain("Featured: yes\n")
	}
	if mv.ImagePath != "" {
		r.writePlain("Poster:   %s\n", mv.ImagePath)
	}
	if mv.Description != "" {
		r.writePlainln("%s", mv.Description)
	}
}
