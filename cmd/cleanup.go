// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xataio/testkit/cmd/flags"
	"github.com/xataio/testkit/pkg/dbname"
	"github.com/xataio/testkit/pkg/mongotest"
)

const defaultMaxAge = 24 * time.Hour

func cleanupCmd() *cobra.Command {
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop stale generated test databases",
		Long: "Drop databases whose names were produced by the test database name generator " +
			"and whose embedded timestamp is older than the given age. Databases without " +
			"the generator's markers are never touched.",
	}

	cleanupCmd.AddCommand(cleanupPostgresCmd())
	cleanupCmd.AddCommand(cleanupMongoCmd())

	return cleanupCmd
}

func cleanupPostgresCmd() *cobra.Command {
	var olderThan time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "postgres",
		Short: "Drop stale generated databases from a Postgres server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := sql.Open("postgres", flags.PostgresURL())
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer db.Close()

			names, err := listPostgresDatabases(ctx, db)
			if err != nil {
				return err
			}

			stale := staleNames(names, olderThan)
			if dryRun {
				return reportDryRun(stale)
			}

			sp, _ := pterm.DefaultSpinner.WithText("Dropping stale test databases...").Start()
			for _, name := range stale {
				sp.UpdateText(fmt.Sprintf("Dropping %s...", name))
				if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE %s", pq.QuoteIdentifier(name))); err != nil {
					sp.Fail(fmt.Sprintf("Failed to drop %s: %s", name, err))
					return err
				}
			}
			sp.Success(fmt.Sprintf("Dropped %d stale test database(s)", len(stale)))

			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", defaultMaxAge, "Minimum age of databases to drop (eg. 24h, 30m)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be dropped without dropping")

	return cmd
}

func cleanupMongoCmd() *cobra.Command {
	var olderThan time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "mongo",
		Short: "Drop stale generated databases from a MongoDB server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := mongo.Connect(ctx, options.Client().ApplyURI(flags.MongoURL()))
			if err != nil {
				return fmt.Errorf("failed to connect to mongodb: %w", err)
			}
			defer client.Disconnect(ctx)

			if dryRun {
				stale, err := mongotest.ListStale(ctx, client, olderThan)
				if err != nil {
					return err
				}
				return reportDryRun(stale)
			}

			sp, _ := pterm.DefaultSpinner.WithText("Dropping stale test databases...").Start()
			dropped, err := mongotest.SweepStale(ctx, client, olderThan)
			if err != nil {
				sp.Fail(fmt.Sprintf("Failed to drop stale test databases: %s", err))
				return err
			}
			sp.Success(fmt.Sprintf("Dropped %d stale test database(s)", len(dropped)))

			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", defaultMaxAge, "Minimum age of databases to drop (eg. 24h, 30m)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be dropped without dropping")

	return cmd
}

func listPostgresDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT datname FROM pg_database WHERE NOT datistemplate")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// staleNames filters names down to generated test database names older than
// olderThan.
func staleNames(names []string, olderThan time.Duration) []string {
	cutoff := time.Now().Add(-olderThan)

	var stale []string
	for _, name := range names {
		if !dbname.LooksLikeTestDatabaseName(name) {
			continue
		}

		createdAt, err := dbname.GenerationTime(name)
		if err != nil || createdAt.After(cutoff) {
			continue
		}

		stale = append(stale, name)
	}

	return stale
}

func reportDryRun(stale []string) error {
	if len(stale) == 0 {
		pterm.Info.Println("No stale test databases found")
		return nil
	}

	for _, name := range stale {
		pterm.Println(name)
	}
	pterm.Info.Printfln("%d stale test database(s) would be dropped", len(stale))

	return nil
}
