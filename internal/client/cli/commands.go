package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/client/client"
	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/urfave/cli/v2"
)

func usernameFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "username",
		Aliases:     []string{"u"},
		Usage:       "account name",
		Destination: dst,
		Required:    true,
	}
}

func passwordStdinFlag(dst *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "password-stdin",
		Usage:       passwordStdinUsage,
		Destination: dst,
	}
}

func (a *App) saltCmd() *cli.Command {
	var username string
	return &cli.Command{
		Name:  "salt",
		Usage: "Show the salt the server uses for a username",
		Flags: []cli.Flag{usernameFlag(&username)},
		Action: func(c *cli.Context) error {
			res, err := a.authService.Salt(c.Context, username)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "salt: %s\nnew user: %t\n", res.Salt, res.IsNewUser)
			return nil
		},
	}
}

func (a *App) registerCmd() *cli.Command {
	var (
		username  string
		email     string
		fromStdin bool
	)
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account (the password is hashed before it is sent)",
		Flags: []cli.Flag{
			usernameFlag(&username),
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "optional contact address",
				Destination: &email,
			},
			passwordStdinFlag(&fromStdin),
		},
		Action: func(c *cli.Context) error {
			password, err := a.readSecret(fromStdin)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			id, err := a.authService.Register(c.Context, username, email, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "registered %s (id %s)\n", username, id)
			return nil
		},
	}
}

func (a *App) loginCmd() *cli.Command {
	var (
		username  string
		fromStdin bool
	)
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and cache the session token",
		Flags: []cli.Flag{usernameFlag(&username), passwordStdinFlag(&fromStdin)},
		Action: func(c *cli.Context) error {
			password, err := a.readSecret(fromStdin)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			s, err := a.authService.Login(c.Context, username, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "logged in as %s\n", s.Username)
			return nil
		},
	}
}

func (a *App) profileCmd() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the profile behind the cached token",
		Action: func(c *cli.Context) error {
			u, err := a.authService.Profile(c.Context)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "id:       %s\nusername: %s\n", u.ID, u.Username)
			if u.IssuedAt != nil {
				fmt.Fprintf(a.out, "issued:   %s\n", u.IssuedAt.UTC().Format(time.RFC3339))
			}
			if u.ExpiresAt != nil {
				fmt.Fprintf(a.out, "expires:  %s\n", u.ExpiresAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func (a *App) logoutCmd() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the cached session",
		Action: func(c *cli.Context) error {
			if err := a.authService.Logout(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "logged out")
			return nil
		},
	}
}

func (a *App) pingCmd() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the server and its store are up",
		Action: func(c *cli.Context) error {
			if err := a.authService.Ping(c.Context); err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, "server ok")
			return nil
		},
	}
}

// describe turns API errors into messages for people. The cause stays
// reachable with errors.Is.
func describe(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		return fmt.Errorf("not logged in: %w", err)
	case errors.Is(err, client.ErrForbidden):
		return fmt.Errorf("session is no longer valid, log in again: %w", err)
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("invalid username or password: %w", err)
	case errors.Is(err, client.ErrAlreadyExists):
		return fmt.Errorf("username is taken: %w", err)
	case errors.Is(err, client.ErrRateLimited) && errors.As(err, &apiErr) && apiErr.RetryAfter > 0:
		return fmt.Errorf("too many attempts, retry in %s: %w", apiErr.RetryAfter, err)
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("server unreachable: %w", err)
	default:
		return err
	}
}
