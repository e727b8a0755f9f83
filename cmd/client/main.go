package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JMURv/fieldlog/internal/client/api"
	"github.com/JMURv/fieldlog/internal/client/config"
	"github.com/JMURv/fieldlog/internal/client/session"
	"github.com/JMURv/fieldlog/internal/client/store"
	"github.com/JMURv/fieldlog/internal/dto"
	md "github.com/JMURv/fieldlog/internal/models"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const usage = `usage: fieldlog <command> [args]

commands:
  status                  show whether this device is signed in
  login -email <email>    sign in (password is prompted)
  logout                  sign out and forget local credentials
  tokens                  list push tokens registered for the signed-in user
  test -title <t> -body <b>
                          send a test notification to your devices
`

// staticToken serves the push token configured in the environment.
type staticToken struct {
	token    string
	platform md.Platform
}

func (s staticToken) Token(context.Context) (string, md.Platform, error) {
	return s.token, s.platform, nil
}

// noLocal stands in for the OS notification center; a terminal has nothing to cancel.
type noLocal struct{}

func (noLocal) CancelAll(context.Context) error { return nil }

func main() {
	conf, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if conf.Mode == "dev" {
		zap.ReplaceGlobals(zap.Must(zap.NewDevelopment()))
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, conf, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, conf config.Config, cmd string, args []string) error {
	st, err := store.Open(ctx, conf.DB)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer st.Close()

	cli, err := api.New(conf.APIURL, nil)
	if err != nil {
		return err
	}

	m := session.New(
		st, cli,
		session.WithDeviceTokens(staticToken{token: conf.PushToken, platform: md.Platform(conf.Platform)}),
		session.WithLocalNotifications(noLocal{}),
		session.WithDeviceInfo(conf.DeviceInfo),
	)

	switch cmd {
	case "status":
		s := m.CheckStatus(ctx)
		if c := m.Credentials(ctx); s == session.StatusAuthenticated && c != nil {
			fmt.Printf("%s as %s (%s)\n", s, c.Identity.Email, c.Identity.ID)
			return nil
		}
		fmt.Println(s)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "account email")
		if err = fs.Parse(args); err != nil {
			return err
		}
		if *email == "" {
			return errors.New("-email is required")
		}

		pass, err := readPassword()
		if err != nil {
			return err
		}

		id, err := m.SignIn(ctx, *email, pass)
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s\n", id.Name)
		return nil

	case "logout":
		if err = m.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil

	case "tokens":
		c, err := authenticated(ctx, m)
		if err != nil {
			return err
		}

		tokens, err := cli.UserTokens(ctx, c.Access, c.Identity.ID)
		if err != nil {
			return err
		}
		for _, t := range tokens {
			fmt.Println(t)
		}
		return nil

	case "test":
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		title := fs.String("title", "Test", "notification title")
		body := fs.String("body", "Hello from fieldlog", "notification body")
		if err = fs.Parse(args); err != nil {
			return err
		}

		c, err := authenticated(ctx, m)
		if err != nil {
			return err
		}

		res, err := cli.SendTest(ctx, c.Access, &dto.TestNotificationRequest{UserID: c.Identity.ID, Title: *title, Body: *body})
		if err != nil {
			return err
		}
		fmt.Printf("delivered to %d device(s), %d failed\n", res.SuccessCount, res.FailureCount)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func authenticated(ctx context.Context, m *session.Manager) (*store.Credentials, error) {
	if m.CheckStatus(ctx) != session.StatusAuthenticated {
		return nil, errors.New("not signed in")
	}

	c := m.Credentials(ctx)
	if c == nil {
		return nil, errors.New("not signed in")
	}
	return c, nil
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
