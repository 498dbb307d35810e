package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"golang.org/x/term"

	"travelapp/internal/api"
	"travelapp/internal/core"
)

// readPassword prompts on a terminal without echo, or reads one line when
// stdin is piped.
func (r *runtime) readPassword(prompt string) (string, error) {
	fd := int(r.stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(r.stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(r.stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(r.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *runtime) loginCommand() *ff.Command {
	fs := r.flags("login")
	email := fs.StringLong("email", "", "account email")
	return &ff.Command{
		Name:      "login",
		Usage:     "tripctl login --email EMAIL",
		ShortHelp: "sign in and store the session",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			password, err := r.readPassword("Password: ")
			if err != nil {
				return err
			}
			res, err := r.app.API.Login(ctx, *email, password)
			if err != nil {
				return err
			}
			if err := r.app.Session.SaveLogin(ctx, res.Token, res.User); err != nil {
				return err
			}
			fmt.Fprintf(r.stdout, "Logged in as %s\n", displayName(res.User))
			return nil
		},
	}
}

func (r *runtime) logoutCommand() *ff.Command {
	return &ff.Command{
		Name:      "logout",
		ShortHelp: "forget the stored session",
		Flags:     r.flags("logout"),
		Exec: func(ctx context.Context, _ []string) error {
			if err := r.app.Session.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(r.stdout, "Logged out")
			return nil
		},
	}
}

func (r *runtime) signupCommand() *ff.Command {
	fs := r.flags("signup")
	var in api.SignupInput
	fs.StringVar(&in.FirstName, 0, "first", "", "first name")
	fs.StringVar(&in.LastName, 0, "last", "", "last name")
	fs.StringVar(&in.Email, 0, "email", "", "account email")
	return &ff.Command{
		Name:      "signup",
		Usage:     "tripctl signup --first NAME --last NAME --email EMAIL",
		ShortHelp: "create an account",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			password, err := r.readPassword("Choose a password: ")
			if err != nil {
				return err
			}
			in.Password = password
			user, err := r.app.API.Signup(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.stdout, "Account created for %s. You can now log in.\n", user.Email)
			return nil
		},
	}
}

func (r *runtime) resetPasswordCommand() *ff.Command {
	fs := r.flags("reset-password")
	email := fs.StringLong("email", "", "account email")
	return &ff.Command{
		Name:      "reset-password",
		Usage:     "tripctl reset-password --email EMAIL",
		ShortHelp: "request a password reset email",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			msg, err := r.app.API.RequestPasswordReset(ctx, *email)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Check your inbox for reset instructions."
			}
			fmt.Fprintln(r.stdout, msg)
			return nil
		},
	}
}

func (r *runtime) profileCommand() *ff.Command {
	fs := r.flags("profile")
	var (
		first = fs.StringLong("first", "", "update first name")
		last  = fs.StringLong("last", "", "update last name")
		phone = fs.StringLong("phone", "", "update phone number")
	)
	return &ff.Command{
		Name:      "profile",
		Usage:     "tripctl profile [--first NAME] [--last NAME] [--phone NUMBER]",
		ShortHelp: "show or update the signed-in profile",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			user, err := r.app.Session.RefreshProfile(ctx, r.app.API)
			if err != nil {
				return err
			}
			if *first != "" || *last != "" || *phone != "" {
				user.FirstName = firstNonEmpty(*first, user.FirstName)
				user.LastName = firstNonEmpty(*last, user.LastName)
				user.Phone = firstNonEmpty(*phone, user.Phone)
				if user, err = r.app.API.UpdateProfile(ctx, user); err != nil {
					return err
				}
				if err := r.app.Session.SetProfile(ctx, user); err != nil {
					return err
				}
			}
			fmt.Fprintf(r.stdout, "%s <%s>\n", displayName(user), user.Email)
			if user.Phone != "" {
				fmt.Fprintf(r.stdout, "Phone: %s\n", user.Phone)
			}
			if !user.DateOfBirth.IsZero() {
				fmt.Fprintf(r.stdout, "Born:  %s\n", user.DateOfBirth)
			}
			return nil
		},
	}
}

func displayName(u core.User) string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
