package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"course-portal/internal/domain"
	"course-portal/internal/router"
	"course-portal/internal/session"

	"github.com/urfave/cli/v2"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and keep the session for later commands",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (read from stdin when omitted)", EnvVars: []string{"COURSECTL_PASSWORD"}},
		},
		Action: login,
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and log in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Display name", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (read from stdin when omitted)", EnvVars: []string{"COURSECTL_PASSWORD"}},
			&cli.StringFlag{Name: "confirm-password", Usage: "Password confirmation (defaults to --password)"},
		},
		Action: register,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: logout,
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show who is logged in",
		Action: status,
	}
}

func login(c *cli.Context) error {
	rt := GetRuntime(c)
	if err := rt.Navigate(router.LoginPath); err != nil {
		return err
	}

	password, err := readPassword(c)
	if err != nil {
		return err
	}

	grant, err := rt.Manager.Login(commandContext(c), c.String("email"), password)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Fprintf(c.App.Writer, "Logged in as %s\n", grant.User.DisplayName())
	return nil
}

func register(c *cli.Context) error {
	rt := GetRuntime(c)
	if err := rt.Navigate("/register"); err != nil {
		return err
	}

	password, err := readPassword(c)
	if err != nil {
		return err
	}
	confirm := c.String("confirm-password")
	if !c.IsSet("confirm-password") {
		confirm = password
	}

	grant, err := rt.Manager.Register(commandContext(c), c.String("email"), password, c.String("username"), confirm)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Fprintf(c.App.Writer, "Registered and logged in as %s\n", grant.User.DisplayName())
	return nil
}

func logout(c *cli.Context) error {
	rt := GetRuntime(c)
	rt.Manager.Logout(commandContext(c))
	fmt.Fprintln(c.App.Writer, "Logged out")
	return nil
}

type statusView struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	Subject       string       `json:"subject,omitempty"`
	Issuer        string       `json:"issuer,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Expired       bool         `json:"expired,omitempty"`
	SessionFile   string       `json:"session_file"`
}

func status(c *cli.Context) error {
	rt := GetRuntime(c)
	snap := rt.Store.Snapshot()

	view := statusView{
		Authenticated: snap.Authenticated(),
		User:          snap.User,
		SessionFile:   rt.File,
	}
	if view.Authenticated {
		info, err := session.InspectToken(snap.Token)
		switch {
		case err == nil:
			view.Subject = info.Subject
			view.Issuer = info.Issuer
			if !info.ExpiresAt.IsZero() {
				exp := info.ExpiresAt
				view.ExpiresAt = &exp
			}
			view.Expired = info.Expired(time.Now())
		case !errors.Is(err, session.ErrOpaqueToken):
			return err
		}
	}

	if rt.Output == "json" {
		return writeJSON(c.App.Writer, view)
	}

	w := c.App.Writer
	if !view.Authenticated {
		fmt.Fprintln(w, "Not logged in")
		fmt.Fprintf(w, "Session file: %s\n", view.SessionFile)
		return nil
	}
	fmt.Fprintf(w, "Logged in as %s", view.User.DisplayName())
	if view.User.Email != "" {
		fmt.Fprintf(w, " <%s>", view.User.Email)
	}
	fmt.Fprintln(w)
	if view.Subject != "" {
		fmt.Fprintf(w, "Token subject: %s\n", view.Subject)
	}
	if view.ExpiresAt != nil {
		state := "valid until"
		if view.Expired {
			state = "expired at"
		}
		fmt.Fprintf(w, "Token %s %s\n", state, view.ExpiresAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(w, "Session file: %s\n", view.SessionFile)
	return nil
}

func readPassword(c *cli.Context) (string, error) {
	if p := c.String("password"); p != "" {
		return p, nil
	}
	fmt.Fprint(c.App.ErrWriter, "Password: ")
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	p := strings.TrimRight(line, "\r\n")
	if p == "" {
		return "", errors.New("password is required")
	}
	return p, nil
}

func describeAuthError(err error) error {
	var rejected *domain.RejectedError
	if errors.As(err, &rejected) {
		if rejected.Message != "" {
			return fmt.Errorf("%s (status %d)", rejected.Message, rejected.StatusCode)
		}
		return fmt.Errorf("credentials rejected (status %d)", rejected.StatusCode)
	}
	return err
}
