package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pier11/marina-map/internal/database"
	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/repository"
	"github.com/pier11/marina-map/internal/service"
	"github.com/pier11/marina-map/internal/validate"
)

type adminOptions struct {
	email       string
	fullName    string
	password    string
	interactive bool
}

func newCreateAdminCmd() *cobra.Command {
	var o adminOptions
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.interactive {
				if err := o.prompt(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			cfg, zl, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			auth := service.NewAuthService(repository.NewRepos(db), cfg, zl)
			u, err := createAdmin(cmd.Context(), auth, o)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin user created: %s (id %d)\n", u.Email, u.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.email, "email", "admin@pier11marina.com", "admin email")
	f.StringVar(&o.fullName, "full-name", "Admin User", "admin full name")
	f.StringVar(&o.password, "password", "", "admin password")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "prompt for the account details")
	return cmd
}

// errPasswordMismatch is returned when the confirmation differs.
var errPasswordMismatch = errors.New("passwords do not match")

// prompt asks for each field, keeping the flag value when the answer is
// blank. On a terminal the password is read without echo; it is always
// asked twice.
func (o *adminOptions) prompt(in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	readLine := func() (string, error) {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	readSecret := readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		readSecret = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return strings.TrimSpace(string(b)), err
		}
	}

	for _, q := range []struct {
		label string
		dst   *string
	}{{"Email", &o.email}, {"Full name", &o.fullName}} {
		if *q.dst != "" {
			fmt.Fprintf(out, "%s [%s]: ", q.label, *q.dst)
		} else {
			fmt.Fprintf(out, "%s: ", q.label)
		}
		v, err := readLine()
		if err != nil {
			return err
		}
		if v != "" {
			*q.dst = v
		}
	}

	fmt.Fprint(out, "Password: ")
	pw, err := readSecret()
	if err != nil {
		return err
	}
	if pw == "" {
		if o.password == "" {
			return errors.New("password is required")
		}
		return nil
	}
	fmt.Fprint(out, "Confirm password: ")
	confirm, err := readSecret()
	if err != nil {
		return err
	}
	if pw != confirm {
		return errPasswordMismatch
	}
	o.password = pw
	return nil
}

// createAdmin validates the account the same way POST /auth/register does
// and registers it with the admin role.
func createAdmin(ctx context.Context, auth *service.AuthService, o adminOptions) (*model.User, error) {
	in := model.UserCreate{
		Email:    o.email,
		Password: o.password,
		FullName: o.fullName,
		Role:     string(model.RoleAdmin),
	}
	in.Normalize()
	if err := validate.New().Validate(&in); err != nil {
		return nil, err
	}
	u, err := auth.Register(ctx, in)
	if errors.Is(err, service.ErrConflict) {
		return nil, fmt.Errorf("user %s already exists", in.Email)
	}
	return u, err
}
