// Package authctl implements the gophauth admin command line: schema
// migrations, a one-off expiry sweep and manual signup.
package authctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
)

const usage = `usage: authctl <command> [flags]

commands:
  migrate   apply database migrations
  sweep     remove expired refresh tokens once and print the count
  signup    create an identity (-name, -email; password is prompted)

server flags (-a, -d, -storage, -s, -rs, ...) and -c/-config are accepted by every command.
`

var ErrUsage = errors.New("invalid usage")

type App struct {
	in     *bufio.Reader
	out    io.Writer
	config *config.Config
	logger logging.Logger
}

// Run executes the command named by args[0]; the remaining args are shared
// between the command's own flags and the server configuration.
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		fmt.Fprint(out, usage)
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}

	cmd, rest := args[0], args[1:]

	cfg, err := config.LoadConfig(rest)
	if err != nil {
		return err
	}

	a := &App{
		in:     bufio.NewReader(in),
		out:    out,
		config: cfg,
		logger: logging.NewLogger(os.Stderr, cfg.LogLevel, "text"),
	}

	switch cmd {
	case "migrate":
		return a.Migrate(ctx)
	case "sweep":
		return a.Sweep(ctx)
	case "signup":
		return a.Signup(ctx, rest)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) Migrate(ctx context.Context) error {
	rm, err := server.NewRepositoryManager(ctx, a.config)
	if err != nil {
		return err
	}
	defer rm.Close()

	if err := rm.RunMigrations(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

func (a *App) Sweep(ctx context.Context) error {
	app, err := server.NewApp(ctx, a.config, a.logger)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Sweeper().Tick(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "removed %d expired refresh tokens\n", n)
	return nil
}

func (a *App) Signup(ctx context.Context, args []string) error {
	var name, email string

	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&name, "name", "", "display name")
	fs.StringVar(&email, "email", "", "email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-name", "-email"})); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	var err error
	if name == "" {
		if name, err = GetSimpleText(a.in, "Enter name", a.out); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = GetSimpleText(a.in, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	app, err := server.NewApp(ctx, a.config, a.logger)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Users().Signup(ctx, name, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id: %s\naccess token: %s\nrefresh token: %s\n", res.IdentityID, res.AccessToken, res.RefreshToken)
	return nil
}
