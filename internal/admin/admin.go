// Package admin implements the operator CLI: database migrations, first-run
// initialization and account maintenance without going through the API.
package admin

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server"
	"github.com/dmitrijs2005/gophcrud/internal/server/config"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// Accounts is the part of services.UserService the CLI uses.
type Accounts interface {
	CreateAccount(ctx context.Context, in models.UserCreate) (*models.User, error)
	SetPassword(ctx context.Context, email, password string) error
	EnsureFirstSuperuser(ctx context.Context, email, password string) (bool, error)
}

type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
}

// Backend is an open database with the services built on it.
type Backend struct {
	DB       *sql.DB
	Migrator Migrator
	Accounts Accounts
}

func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// Env holds what commands need. Tests replace Connect and ReadPassword.
type Env struct {
	Config       *config.Config
	Logger       logging.Logger
	Out          io.Writer
	Connect      func(ctx context.Context, cfg *config.Config, log logging.Logger) (*Backend, error)
	ReadPassword func(fd int) ([]byte, error)
}

// DefaultEnv wires Env to a real database and terminal.
func DefaultEnv(cfg *config.Config) *Env {
	return &Env{
		Config:       cfg,
		Logger:       server.NewLogger(cfg, os.Stderr),
		Out:          os.Stdout,
		Connect:      connect,
		ReadPassword: term.ReadPassword,
	}
}

func connect(ctx context.Context, cfg *config.Config, log logging.Logger) (*Backend, error) {
	db, err := server.OpenDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c, err := server.Build(cfg, db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Backend{DB: db, Migrator: c.Repos, Accounts: c.Users}, nil
}

// withBackend opens the backend, runs fn and closes it again.
func (e *Env) withBackend(ctx context.Context, fn func(b *Backend) error) error {
	b, err := e.Connect(ctx, e.Config, e.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			e.Logger.Warn(ctx, "error closing database", "error", err)
		}
	}()
	return fn(b)
}

// promptPassword reads a password without echo. When confirm is set it asks
// twice and requires both entries to match. The caller must wipe the result.
func (e *Env) promptPassword(confirm bool) ([]byte, error) {
	fmt.Fprint(e.Out, "Enter password: ")
	pw, err := e.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(e.Out)
	if err != nil {
		return nil, fmt.Errorf("error reading password: %w", err)
	}
	if !confirm {
		return pw, nil
	}

	fmt.Fprint(e.Out, "Repeat password: ")
	again, err := e.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(e.Out)
	defer common.WipeByteArray(again)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, fmt.Errorf("error reading password: %w", err)
	}
	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, ErrPasswordMismatch
	}
	return pw, nil
}

// NewRootCmd builds the command tree.
func NewRootCmd(e *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "gophcrud administration",
		Long:          `admin manages the gophcrud database and accounts directly, bypassing the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Read by config.LoadConfig from the raw arguments; declared here so
	// cobra accepts them.
	var configFile, envFile string
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "JSON or YAML config file")
	root.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", ".env file")

	root.AddCommand(newMigrateCmd(e), newInitCmd(e), newCreateUserCmd(e), newResetPasswordCmd(e))
	return root
}

func newMigrateCmd(e *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return e.withBackend(ctx, func(b *Backend) error {
				if err := b.Migrator.RunMigrations(ctx, b.DB); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintln(e.Out, "Migrations applied")
				return nil
			})
		},
	}
}

func newInitCmd(e *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Wait for the database, migrate and create the first superuser",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return e.withBackend(ctx, func(b *Backend) error {
				if err := b.Migrator.RunMigrations(ctx, b.DB); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				created, err := b.Accounts.EnsureFirstSuperuser(ctx, e.Config.FirstSuperuser, e.Config.FirstSuperuserPassword)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(e.Out, "Superuser %s created\n", e.Config.FirstSuperuser)
				} else {
					fmt.Fprintf(e.Out, "Superuser %s already exists\n", e.Config.FirstSuperuser)
				}
				return nil
			})
		},
	}
}

func newCreateUserCmd(e *Env) *cobra.Command {
	var (
		email     string
		fullName  string
		superuser bool
		inactive  bool
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account; the password is prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := e.promptPassword(true)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			in := models.UserCreate{
				Email:       email,
				Password:    string(pw),
				IsActive:    !inactive,
				IsSuperuser: superuser,
			}
			if fullName != "" {
				in.FullName = &fullName
			}

			ctx := cmd.Context()
			return e.withBackend(ctx, func(b *Backend) error {
				u, err := b.Accounts.CreateAccount(ctx, in)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(e.Out, "User %s created (id %s)\n", u.Email, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant superuser rights")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the account disabled")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd(e *Env) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := e.promptPassword(true)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			ctx := cmd.Context()
			return e.withBackend(ctx, func(b *Backend) error {
				if err := b.Accounts.SetPassword(ctx, email, string(pw)); err != nil {
					return describe(err)
				}
				fmt.Fprintf(e.Out, "Password for %s updated\n", email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// describe prefers the client-facing detail of service errors.
func describe(err error) error {
	var de *common.DetailedError
	if errors.As(err, &de) {
		return errors.New(de.Detail)
	}
	return err
}
