package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/service"
)

// ---------- login ----------

func newLoginCmd() *cobra.Command {
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := ""
			if len(args) == 1 {
				username = args[0]
			}
			return runLogin(cmd, username, password, passwordStdin)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func runLogin(cmd *cobra.Command, username, password string, passwordStdin bool) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	if username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	if password == "" {
		var err error
		password, err = readPassword(in, out, passwordStdin)
		if err != nil {
			return err
		}
	}

	c, _, _, closeFn, err := openConsole(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	id, err := c.Login(cmd.Context(), username, password)
	switch {
	case errors.Is(err, service.ErrRejected):
		return fmt.Errorf("login failed: invalid credentials")
	case errors.Is(err, service.ErrUnavailable):
		return fmt.Errorf("login failed: identity service unavailable, try again later: %w", err)
	case err != nil:
		return fmt.Errorf("login failed: %w", err)
	}

	name := id.FullName
	if name == "" {
		name = id.Username
	}
	fmt.Fprintf(out, "Signed in as %s\n", name)
	fmt.Fprintf(out, "  roles:       %s\n", joinOrNone(id.Roles))
	fmt.Fprintf(out, "  permissions: %s\n", joinOrNone(c.Permissions(cmd.Context())))
	return nil
}

// readPassword prompts without echo on a terminal and falls back to reading
// a line when stdin is piped or --password-stdin is set.
func readPassword(in *bufio.Reader, out io.Writer, fromStdin bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !fromStdin && term.IsTerminal(fd) {
		fmt.Fprint(out, "Password: ")
		pwBytes, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pwBytes), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ---------- logout ----------

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, closeFn, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			c.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// ---------- whoami ----------

type whoamiOutput struct {
	Authenticated bool               `json:"authenticated"`
	UserID        string             `json:"user_id,omitempty"`
	Username      string             `json:"username,omitempty"`
	Email         string             `json:"email,omitempty"`
	FullName      string             `json:"full_name,omitempty"`
	Roles         []string           `json:"roles,omitempty"`
	Permissions   []string           `json:"permissions,omitempty"`
	Token         *service.TokenInfo `json:"token,omitempty"`
}

func newWhoamiCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity and what it may access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, closeFn, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			out := whoamiOutput{}
			if id, ok := c.CurrentIdentity(ctx); ok {
				out = whoamiOutput{
					Authenticated: true,
					UserID:        id.UserID,
					Username:      id.Username,
					Email:         id.Email,
					FullName:      id.FullName,
					Roles:         id.Roles,
					Permissions:   c.Permissions(ctx),
				}
				if info, ok := c.TokenInfo(ctx); ok && info.IsJWT {
					out.Token = &info
				}
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(w, out)
			}
			if !out.Authenticated {
				fmt.Fprintln(w, "Not signed in. Run 'assetctl login'.")
				return nil
			}

			fmt.Fprintf(w, "%s (%s)\n", orDash(out.FullName), out.Username)
			fmt.Fprintf(w, "  user id:     %s\n", out.UserID)
			fmt.Fprintf(w, "  email:       %s\n", orDash(out.Email))
			fmt.Fprintf(w, "  roles:       %s\n", joinOrNone(out.Roles))
			fmt.Fprintf(w, "  permissions: %s\n", joinOrNone(out.Permissions))
			if out.Token != nil && !out.Token.ExpiresAt.IsZero() {
				note := ""
				if out.Token.Expired(time.Now()) {
					note = " (expired)"
				}
				fmt.Fprintf(w, "  token exp:   %s%s\n", out.Token.ExpiresAt.Local().Format(time.RFC1123), note)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- can ----------

func newCanCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "can <permission>",
		Short: "Check whether the signed-in identity holds a permission",
		Long: `Check whether the signed-in identity holds a permission.

Exits 0 when the permission is granted and 1 otherwise, so it can be used in scripts:

  assetctl can purchases && echo allowed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, closeFn, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			permission := args[0]
			if !c.IsAuthenticated(cmd.Context()) {
				return fmt.Errorf("not signed in")
			}
			if !c.HasPermission(cmd.Context(), permission) {
				return fmt.Errorf("permission %q denied", permission)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "permission %q granted\n", permission)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing on success")

	return cmd
}
