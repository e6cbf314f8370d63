// Command agentctl is operator tooling for an agentdesk database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"agentdesk.io/agentdesk/internal/auth"
	"agentdesk.io/agentdesk/internal/config"
	"agentdesk.io/agentdesk/internal/core"
	"agentdesk.io/agentdesk/internal/logging"
	"agentdesk.io/agentdesk/internal/store"
	"go.uber.org/zap"
)

const usage = `usage: agentctl <command> [flags]

commands:
  create-user    -email E -password P [-name N] [-admin]
  promote-admin  -email E [-demote]
  list-bots
  ping-db
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.LoadDatabase()
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "agentctl %s: %v\n", os.Args[1], err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "user password (min 8 characters)")
	name := fs.String("name", "", "display name")
	admin := fs.Bool("admin", false, "create the user with the ADMIN role")
	demote := fs.Bool("demote", false, "set the role back to USER")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch cmd {
	case "create-user", "promote-admin", "list-bots", "ping-db":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command")
	}

	dbStore, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer dbStore.Close()

	// Operator commands never issue sessions; the issuer only satisfies the service.
	accounts := core.NewAccountService(dbStore, auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL), logger)

	switch cmd {
	case "create-user":
		role := store.RoleUser
		if *admin {
			role = store.RoleAdmin
		}
		u, err := accounts.CreateUser(ctx, core.NewUser{Email: *email, Password: *password, Name: *name, Role: role})
		if err != nil {
			return err
		}
		fmt.Printf("created %s %s (%s)\n", u.Role, u.Email, u.ID)
	case "promote-admin":
		role := store.RoleAdmin
		if *demote {
			role = store.RoleUser
		}
		u, err := accounts.SetRole(ctx, *email, role)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", u.Email, u.Role)
	case "list-bots":
		bots, err := dbStore.ListAgentOverviews(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tOWNER\tTELEGRAM\tCONVERSATIONS\tDOCUMENTS")
		for _, b := range bots {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\n", b.ID, b.Name, b.OwnerEmail, b.HasTelegram(), b.ConversationCount, b.DocumentCount)
		}
		return tw.Flush()
	case "ping-db":
		if err := dbStore.Ping(ctx); err != nil {
			return err
		}
		fmt.Printf("ok (%s)\n", dbStore.Driver())
	}
	return nil
}
