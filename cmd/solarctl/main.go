// Command solarctl runs operator tasks against the configured store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/config"
	"github.com/solarview/solarview/internal/store"
)

const usage = `usage: solarctl <command> [arguments]

commands:
  migrate                              apply pending schema migrations
  create-admin -email E -password P    create an admin, or promote and reset an existing user
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "solarctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	switch args[0] {
	case "migrate":
		return migrate(ctx, cfg, out)
	case "create-admin":
		return createAdmin(ctx, cfg, args[1:], out)
	default:
		return errUsage
	}
}

func migrate(ctx context.Context, cfg *config.Config, out io.Writer) error {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := store.Migrate(ctx, st); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}
	fmt.Fprintf(out, "migrations applied (%s)\n", st.Backend())
	return nil
}

func createAdmin(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "admin email address")
	password := fs.String("password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" || *password == "" {
		return errUsage
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := store.Migrate(ctx, st); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	accounts := account.NewManager(st, auth.NewService(st.Users(), cfg.BcryptCost))
	admin, created, err := accounts.EnsureAdmin(ctx, *email, *password)
	if err != nil {
		return err
	}

	verb := "promoted"
	if created {
		verb = "created"
	}
	fmt.Fprintf(out, "admin %s %s (id %d)\napi key: %s\n", admin.Email, verb, admin.ID, admin.APIKey)
	return nil
}
