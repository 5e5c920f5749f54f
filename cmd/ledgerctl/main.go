package main

import (
	"fmt"
	"os"
	"time"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/database"
	"github.com/anjiri1684/course_ledger/services"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// ctl holds what every subcommand needs, opened on first use.
type ctl struct {
	settings config.Provider
	open     func(dsn string) (*gorm.DB, error)
	logger   zerolog.Logger
	dsn      string

	db   *gorm.DB
	deps services.Deps
}

func (c *ctl) load() (services.Deps, error) {
	if c.db != nil {
		return c.deps, nil
	}
	dsn := c.dsn
	if dsn == "" {
		dsn = c.settings.Current().DatabaseURL
	}
	db, err := c.open(dsn)
	if err != nil {
		return services.Deps{}, fmt.Errorf("open database: %w", err)
	}
	c.db = db
	c.deps = services.Deps{
		DB:       db,
		Logger:   c.logger,
		Settings: c.settings,
		Now:      func() time.Time { return time.Now().UTC() },
	}
	return c.deps, nil
}

func newRootCmd(c *ctl) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the course ledger from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.dsn, "database-url", "", "Postgres DSN (defaults to DATABASE_URL)")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.load()
			if err != nil {
				return err
			}
			if err := database.Migrate(deps.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "release-commissions",
		Short: "Make matured affiliate commissions withdrawable",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.load()
			if err != nil {
				return err
			}
			released, err := services.NewAffiliateService(deps).ReleaseCommissions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released %d commissions\n", released)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "record-order <order-id>",
		Short: "Record sale commissions for a completed order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q: %w", args[0], err)
			}
			deps, err := c.load()
			if err != nil {
				return err
			}
			created, err := services.NewCommissionService(deps, services.NewWalletLedger(deps)).Record(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %d commissions for order %s\n", len(created), orderID)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "settle-order <order-id>",
		Short: "Pay out the pending commissions of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q: %w", args[0], err)
			}
			deps, err := c.load()
			if err != nil {
				return err
			}
			settlement, err := services.NewCommissionService(deps, services.NewWalletLedger(deps)).MarkPaid(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settled %d commissions for order %s\n", len(settlement.Commissions), orderID)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "balance <user-id>",
		Short: "Print a user's wallet and withdrawable affiliate balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}
			deps, err := c.load()
			if err != nil {
				return err
			}
			wallet, err := services.NewWalletLedger(deps).GetBalance(cmd.Context(), userID)
			if err != nil {
				return err
			}
			affiliate, err := services.NewAffiliateService(deps).AvailableBalance(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wallet:    %s\n", wallet.StringFixed(2))
			fmt.Fprintf(out, "affiliate: %s\n", affiliate.StringFixed(2))
			return nil
		},
	})

	return root
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	c := &ctl{
		settings: config.NewEnvProvider(),
		open:     database.ConnectDB,
		logger:   logger,
	}
	if err := newRootCmd(c).Execute(); err != nil {
		logger.Error().Err(err).Msg("ledgerctl failed")
		os.Exit(1)
	}
}
