package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ProfileShow prints the cached account record.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.store.Read(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sess.User, true)
	}
	r.writeUser(sess.User)
	return nil
}

// ProfileEdit updates the account. Fields that are not passed keep their current value.
func (r *Runner) ProfileEdit(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.store.Read(ctx)
	if err != nil {
		return err
	}

	edit := tasks.ProfileEdit{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Email:    cmd.String("email"),
	}
	if edit.Username == "" {
		edit.Username = sess.User.Username
	}
	if b := cmd.String("birthday"); b != "" {
		d, err := models.ParseDate(b)
		if err != nil {
			return fmt.Errorf("%w: --birthday: %v", shared.ErrInvalidFlag, err)
		}
		edit.Birthday = &d
	}

	user, err := r.flows.EditProfile(ctx, edit)
	if err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}

	r.writePlain("✓ Profile updated\n")
	r.writeUser(*user)
	return nil
}

// ProfileDelete deletes the account. Requires --yes.
func (r *Runner) ProfileDelete(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete your account", shared.ErrMissingArgument)
	}

	if _, err := r.flows.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("account deletion failed: %w", err)
	}
	return r.writePlain("✓ Account deleted. You have been logged out.\n")
}

// ProfileRefresh replaces the cached account record with the server's.
func (r *Runner) ProfileRefresh(ctx context.Context, cmd *cli.Command) error {
	user, err := r.flows.Refresh(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Profile refreshed\n")
	r.writeUser(*user)
	return nil
}

func (r *Runner) writeUser(u models.User) {
	r.writePlainHeader(u.Username)
	r.writePlain("Email:     %s\n", u.Email)
	if u.Birthday != nil {
		r.writePlain("Birthday:  %s\n", u.Birthday)
	}
	r.writePlain("Favorites: %d\n", len(u.FavoriteMovies))
}
