package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/summation"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running the binary without a
// subcommand serves the API.
func newRootCmd() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:          "server",
		Short:        "Owner-scoped task API",
		Long:         `Serves the JSON task API. Subcommands manage the database schema and sum integer ranges.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory searched for config.yaml")

	serve := newServeCmd(&configDir)
	root.AddCommand(serve, newMigrateCmd(&configDir), newSumCmd(), newHashPasswordCmd())
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func newServeCmd(configDir *string) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *configDir, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, configDir string, autoMigrate bool) error {
	cfg, err := loadAppConfig(configDir)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if autoMigrate {
		if err := runMigrations(ctx, cfg.Database.Driver, db, migrateUp, os.Stdout, logger); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", cfg.Server.Port, err)
	}

	return app.serveHTTP(ctx, ln, app.setupRouter())
}

func newMigrateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(migrateCommands, "|") + "]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(*configDir)
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := setupAppDatabase(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return runMigrations(ctx, cfg.Database.Driver, db, args[0], cmd.OutOrStdout(), logger)
		},
	}
}

const methodAll = "all"

func newSumCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "sum N",
		Short: "Sum the integers 1..N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("N must be an integer: %w", err)
			}

			methods := summation.Methods
			if method != methodAll {
				m, err := summation.ParseMethod(method)
				if err != nil {
					return err
				}
				methods = []summation.Method{m}
			}

			out := cmd.OutOrStdout()
			for _, m := range methods {
				start := time.Now()
				sum, err := summation.Sum(m, n)
				if err != nil {
					return fmt.Errorf("%s: %w", m, err)
				}
				if len(methods) == 1 {
					fmt.Fprintln(out, sum)
					continue
				}
				fmt.Fprintf(out, "%-8s %d (%s)\n", m, sum, time.Since(start))
			}
			return nil
		},
	}

	names := make([]string, 0, len(summation.Methods)+1)
	for _, m := range summation.Methods {
		names = append(names, string(m))
	}
	names = append(names, methodAll)
	cmd.Flags().StringVar(&method, "method", string(summation.MethodFormula),
		"Implementation to use: "+strings.Join(names, ", "))
	_ = cmd.RegisterFlagCompletionFunc("method", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return slices.Clone(names), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// newHashPasswordCmd prints a bcrypt hash for each password read from stdin,
// one per line. Useful for seeding users directly in the database.
func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash passwords read from stdin, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher := auth.NewBcryptHasher(cost)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				password := scanner.Text()
				if password == "" {
					continue
				}
				hash, err := hasher.Hash(password)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 10, "bcrypt cost factor")

	return cmd
}
