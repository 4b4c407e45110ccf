package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

type favoriteOp func(ctx context.Context, c *tasks.Catalog, movieID string) (*tasks.ToggleResult, error)

// FavoritesAdd adds a movie to the session user's favorites.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	return r.favorite(ctx, cmd, r.syncer.Add)
}

// FavoritesRemove removes a movie from the session user's favorites.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	return r.favorite(ctx, cmd, r.syncer.Remove)
}

// FavoritesToggle flips the favorite flag of a movie.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	return r.favorite(ctx, cmd, r.syncer.Toggle)
}

func (r *Runner) favorite(ctx context.Context, cmd *cli.Command, op favoriteOp) error {
	arg := cmd.StringArg("movie")
	if arg == "" {
		return fmt.Errorf("%w: movie ID or title", shared.ErrMissingArgument)
	}

	catalog, err := r.library.Catalog(ctx, tasks.LoadOpts{})
	if err != nil {
		return err
	}

	movieID, title := arg, arg
	if mv, ok := catalog.Movie(arg); ok {
		movieID, title = mv.ID, mv.Title
	} else if mv, ok := catalog.FindByTitle(arg); ok {
		movieID, title = mv.ID, mv.Title
	} else {
		r.logger.Warn("movie not in catalog, using argument as ID", "movie", arg)
	}

	res, err := op(ctx, catalog, movieID)
	if res == nil && err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}
	if res.Outcome == tasks.NoSession {
		return fmt.Errorf("%w: run 'flix auth login' first", shared.ErrNoSession)
	}
	if err != nil {
		r.logger.Warn("favorite saved on the server but the local session was not updated", "error", err)
	}

	switch res.Outcome {
	case tasks.Added:
		r.writePlain("★ Added %s to favorites\n", title)
	case tasks.Removed:
		r.writePlain("☆ Removed %s from favorites\n", title)
	}
	return r.writePlain("%d favorites\n", len(res.User.FavoriteMovies))
}

// FavoritesList prints the favorite IDs cached in the session.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.store.Read(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sess.User.FavoriteMovies, true)
	}

	for _, id := range sess.User.FavoriteMovies {
		r.writePlain("%s\n", id)
	}
	return nil
}
