package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/apiclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(g *globalOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session for the active profile",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password, read from stdin when empty")

	cmd.RunE = withApp(g, func(ctx context.Context, a *app, _ []string) error {
		email = strings.TrimSpace(email)
		if email == "" {
			return internal.NewValidationFieldsError(map[string]string{"email": "Email is required"})
		}
		if password == "" {
			var err error
			if password, err = readPassword(a.in, a.out); err != nil {
				return err
			}
		}

		tokens, err := a.client.Login(ctx, apiclient.Credentials{Email: email, Password: password})
		if err != nil {
			return err
		}
		if err := a.session.Begin(ctx, a.cfg.API.BaseURL, email, tokens.AccessToken, tokens.RefreshToken); err != nil {
			return err
		}
		a.logger.Info("Auth: logged in", "profile", a.session.Profile(), "email", email)
		fmt.Fprintf(a.out, "Logged in as %s (profile %s)\n", email, a.session.Profile())
		return nil
	})
	return cmd
}

// readPassword prompts on out and reads one line from in. Terminal input is
// read without echo.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	missing := internal.NewValidationFieldsError(map[string]string{"password": "Password is required"})
	fmt.Fprint(out, "Password: ")
	defer fmt.Fprintln(out)

	if f, ok := in.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil || len(b) == 0 {
			return "", missing
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return "", missing
	}
	return line, nil
}

func newLogoutCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the session of the active profile",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, _ []string) error {
		if err := a.session.End(ctx); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Logged out of profile %s\n", a.session.Profile())
		return nil
	})
	return cmd
}

func newWhoamiCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user of the active profile",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, _ []string) error {
		current, err := a.session.Current(ctx)
		if err != nil {
			return err
		}
		if current == nil {
			return internal.ErrAuthMissing
		}
		profile, err := a.client.Me(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Profile:\t%s\n", current.Profile)
		fmt.Fprintf(tw, "Server:\t%s\n", current.BaseURL)
		fmt.Fprintf(tw, "User:\t%s <%s>\n", profile.Name, profile.Email)
		if profile.Department != "" {
			fmt.Fprintf(tw, "Department:\t%s\n", profile.Department)
		}
		if current.ExpiresAt != nil {
			fmt.Fprintf(tw, "Expires:\t%s\n", current.ExpiresAt.Local().Format(time.RFC3339))
		}
		return tw.Flush()
	})
	return cmd
}
