package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/auth"
	"github.com/nikbrunner/bmsync/internal/migration"
)

func newLoginCmd(a *app) *cobra.Command {
	var migrate, discard bool

	cmd := &cobra.Command{
		Use:   "login [token]",
		Short: "Sign in to a bm server",
		Long: `Sign in with an API token. Reads the token from stdin when it isn't
given as an argument.

Bookmarks saved on this device while signed out are either moved into
the account or discarded. You are asked once, when going from signed out
to signed in; --migrate or --discard answer up front. Running login while
already signed in only replaces the token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.Remote.BaseURL == "" {
				return errors.New("remote.baseURL is not configured")
			}
			if err := a.wire(ctx); err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
				line, err := in.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			wasSignedIn := a.session.Authenticated()
			if err := a.session.SignIn(token); err != nil {
				return err
			}

			prompt := askMigration(in, cmd.ErrOrStderr())
			switch {
			case migrate:
				prompt = answer(migration.Migrate)
			case discard:
				prompt = answer(migration.Skip)
			}

			r := migration.NewReconciler(a.local, a.remote, a.coord, prompt, a.log)
			r.Observe(wasSignedIn)
			out, err := r.OnAuthChange(ctx, a.session.Authenticated())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Signed in to %s\n", a.cfg.Remote.BaseURL)
			if out.Offered {
				switch out.Decision {
				case migration.Migrate:
					fmt.Fprintf(w, "Moved %d bookmarks to your account", out.Imported)
					if out.Skipped > 0 {
						fmt.Fprintf(w, " (%d already there)", out.Skipped)
					}
					fmt.Fprintln(w)
				case migration.Skip:
					fmt.Fprintln(w, "Discarded the bookmarks saved on this device")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "move local bookmarks into the account without asking")
	cmd.Flags().BoolVar(&discard, "discard", false, "drop local bookmarks without asking")
	cmd.MarkFlagsMutuallyExclusive("migrate", "discard")
	return cmd
}

func answer(d migration.Decision) migration.Prompt {
	return func(context.Context, migration.Summary) (migration.Decision, error) {
		return d, nil
	}
}

// askMigration asks on w and reads the reply from r until it gets a yes or
// a no. No discards the local data. Running out of input answers nothing,
// which leaves the data in place.
func askMigration(r *bufio.Reader, w io.Writer) migration.Prompt {
	return func(ctx context.Context, s migration.Summary) (migration.Decision, error) {
		fmt.Fprintf(w, "This device has %d bookmarks in %d folders (%d tags).\n", s.Bookmarks, s.Folders, s.Tags)
		for {
			fmt.Fprint(w, "Move them to your account? [y]es moves them, [n]o discards them: ")
			line, err := r.ReadString('\n')
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				return migration.Migrate, nil
			case "n", "no", "d", "discard":
				return migration.Skip, nil
			}
			if errors.Is(err, io.EOF) {
				return migration.DecisionNone, errNoAnswer
			}
			if err != nil {
				return migration.DecisionNone, err
			}
			fmt.Fprintln(w, "Please answer y or n.")
		}
	}
}

var errNoAnswer = errors.New("no answer, the bookmarks on this device were left in place (run `bm logout` and `bm login` to be asked again)")

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and go back to bookmarks on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := auth.Open(a.cfg.Remote.TokenFile)
			if err != nil {
				return err
			}
			if !session.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err := session.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
