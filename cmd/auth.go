package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates an account and stores the returned session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	details := models.UserDetails{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Email:    cmd.String("email"),
	}

	if b := cmd.String("birthday"); b != "" {
		d, err := models.ParseDate(b)
		if err != nil {
			return fmt.Errorf("%w: --birthday: %v", shared.ErrInvalidFlag, err)
		}
		details.Birthday = &d
	}

	sess, _, err := r.flows.Register(ctx, details)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	return r.writePlain("✓ Registered and logged in as %s\n", sess.User.Username)
}

// AuthLogin exchanges credentials for a session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	sess, _, err := r.flows.Login(ctx, cmd.String("username"), cmd.String("password"))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return r.writePlain("✓ Logged in as %s (%d favorites)\n", sess.User.Username, len(sess.User.FavoriteMovies))
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.flows.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the stored session and token expiry.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	st, err := r.flows.Status(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := map[string]any{"loggedIn": st.LoggedIn}
		if st.LoggedIn {
			out["username"] = st.User.Username
			out["expired"] = st.Expired
			if st.Token != nil && !st.Token.ExpiresAt.IsZero() {
				out["expiresAt"] = st.Token.ExpiresAt.UTC().Format(time.RFC3339)
			}
			if !st.SavedAt.IsZero() {
				out["savedAt"] = st.SavedAt.UTC().Format(time.RFC3339)
			}
		}
		return r.writeJSON(out, true)
	}

	r.writePlain("API: %s\n", r.api.BaseURL())
	if !st.LoggedIn {
		return r.writePlain("✗ Not logged in. Run 'flix auth login' to start a session.\n")
	}

	r.writePlain("✓ Logged in as %s\n", st.User.Username)
	if !st.SavedAt.IsZero() {
		r.writePlain("Session saved at %s\n", st.SavedAt.Local().Format(time.DateTime))
	}
	switch {
	case st.Token == nil || st.Token.ExpiresAt.IsZero():
		r.writePlain("Token: expiry unknown\n")
	case st.Expired:
		r.writePlain("Token: ✗ expired at %s. Log in again.\n", st.Token.ExpiresAt.Local().Format(time.DateTime))
	default:
		r.writePlain("Token: expires %s (in %s)\n", st.Token.ExpiresAt.Local().Format(time.DateTime), st.Remaining.Round(time.Minute))
	}
	return nil
}

// AuthImport seeds the session from a token copied out of the browser.
//
// Accepts a cURL command, a file containing one, or the bare token.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	token := cmd.String("token")

	provided := 0
	for _, v := range []string{curlCmd, curlFile, token} {
		if strings.TrimSpace(v) != "" {
			provided++
		}
	}
	if provided == 0 {
		return fmt.Errorf("%w: one of --curl, --curl-file or --token must be provided", shared.ErrMissingArgument)
	}
	if provided > 1 {
		return fmt.Errorf("%w: --curl, --curl-file and --token are mutually exclusive", shared.ErrInvalidArgument)
	}

	if token == "" {
		var req *shared.CurlRequest
		var err error
		if curlFile != "" {
			req, err = shared.ParseCurlFile(curlFile)
		} else {
			req, err = shared.ParseCurlCommand(curlCmd)
		}
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Debug("parsed cURL command", "url", req.URL, "headers", len(req.Headers))

		if token, err = req.BearerToken(); err != nil {
			return err
		}
	}

	sess, _, err := r.flows.Import(ctx, token)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	return r.writePlain("✓ Session imported for %s\n", sess.User.Username)
}
