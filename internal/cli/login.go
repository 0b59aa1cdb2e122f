package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/quill/pkg/model"
)

// prompter reads answers line by line from the command's input.
type prompter struct {
	out io.Writer
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{out: cmd.OutOrStdout(), in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the blog service",
		Long:  "Log in with email and password. The session is kept until logout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			if email == "" {
				if email, err = p.ask("Email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = p.ask("Password"); err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			user, err := a.session.Login(cmd.Context(), model.LoginRequest{Email: email, Password: password})
			if err != nil {
				return rejected("login", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wasIn := a.session.Current().IsAuthenticated()
			a.session.Logout()
			if wasIn {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			}
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := a.session.Current().User()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:  %s\n", user.Name)
			fmt.Fprintf(out, "Email: %s\n", user.Email)
			fmt.Fprintf(out, "ID:    %d\n", user.ID)
			fmt.Fprintf(out, "Role:  %s\n", user.Role.Label())
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long:  "Create an account. The new account is not logged in; run `quill login` afterwards.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			for _, f := range []struct {
				label string
				dst   *string
			}{{"Name", &name}, {"Email", &email}, {"Password", &password}} {
				if *f.dst != "" {
					continue
				}
				if *f.dst, err = p.ask(f.label); err != nil {
					return err
				}
			}

			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			req := model.RegisterRequest{Name: name, Email: email, Password: password, Role: r}

			user, err := a.api.Register(cmd.Context(), req)
			if err != nil {
				return rejected("register", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s> as %s. Run `quill login` to start a session.\n",
				user.Name, user.Email, user.Role.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (prompted if omitted)")
	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleReader), "Requested role: READER, AUTHOR or ADMIN")
	return cmd
}
