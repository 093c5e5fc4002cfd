// Command lsysctl runs maintenance tasks against the LSYS database.
package main

import (
	"context"
	"fmt"
	"os"

	"lsys/config"
	"lsys/db"
	"lsys/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type cli struct {
	dsn string
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "lsysctl",
		Short:         "Maintenance commands for the LSYS library database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnv(); err != nil {
				return err
			}
			if c.dsn == "" {
				c.dsn = os.Getenv("DATABASE_URL")
			}
			if c.dsn == "" {
				return fmt.Errorf("no database: pass --db or set DATABASE_URL")
			}
			c.log = logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL"), Pretty: true, Output: cmd.ErrOrStderr()})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.dsn, "db", "", "database URL (defaults to $DATABASE_URL)")

	root.AddCommand(
		c.migrateCmd(),
		c.seedCmd(),
		c.addWorkerCmd(),
		c.promoteCmd(),
		c.holdsCmd(),
	)
	return root
}

// open connects and migrates, so every command sees the current schema.
func (c *cli) open(ctx context.Context) (*db.Repo, func(), error) {
	gdb, err := db.ConnectDB(ctx, db.Options{DSN: c.dsn, Log: c.log})
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		_ = db.Close(gdb)
		return nil, nil, err
	}
	return db.NewRepo(gdb), func() { _ = db.Close(gdb) }, nil
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			c.log.Info().Msg("schema up to date")
			return nil
		},
	}
}
