package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"annal/internal/commitlog"
	"annal/internal/domain"
	"annal/internal/entitystore"
	"annal/internal/platform/postgres"
	"annal/pkg/clock"
)

var databaseURL string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "annalctl",
	Short: "Operator tooling for the registry persistence core",
	Long: `annalctl manipulates registry entities directly against the database,
bypassing the HTTP API. Every mutation goes through the same transactional
save hook as the server, so commit-log manifests and revision indexes stay
consistent.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db", os.Getenv("ANNAL_DATABASE_URL"),
		"Postgres connection URL (defaults to ANNAL_DATABASE_URL)")
}

// openStore wires the full persistence stack against the configured database.
func openStore(ctx context.Context) (*entitystore.Store[*domain.Domain], func(), error) {
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("--db or ANNAL_DATABASE_URL is required")
	}
	pool, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	clk := clock.System{}
	store := entitystore.New[*domain.Domain](
		postgres.NewTxManager(pool, clk),
		domain.NewPostgresBackend(pool),
		commitlog.NewPostgresLog(pool, clk),
	)
	return store, pool.Close, nil
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
