package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/localstore"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/postgres"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/storage"
	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "sitectl",
		Short: "Sitebook storage administration",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(repairCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env holds the integrity service and the resources backing it
type env struct {
	integrity *service.IntegrityService
	close     func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	local, err := localstore.NewSQLiteStore(cfg.LocalStore)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var objectStorage domain.ObjectStorage
	if s, err := storage.New(ctx, cfg.Storage); err != nil {
		log.Warn().Err(err).Msg("Object storage unavailable")
	} else {
		objectStorage = s
	}

	integrity := service.NewIntegrityService(postgres.NewAttachmentOwnerRepository(pool), objectStorage, local, cfg.Integrity, log.Logger)
	return &env{
		integrity: integrity,
		close: func() {
			local.Close()
			pool.Close()
		},
	}, nil
}

func checkCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Reconcile attachment references against storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			report, err := e.integrity.Check(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Referenced: %d  Stored: %d\n", report.ReferencedCount, report.StoredCount)
			fmt.Fprintf(out, "Broken URLs: %d  Missing in storage: %d  Missing in DB: %d\n",
				report.BrokenURL, report.MissingInStorage, report.MissingInDB)
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "  %s  %-18s %s\n", issue.ID, issue.Kind, issue.Detail)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past integrity checks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			history, err := e.integrity.History(ctx)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No checks recorded")
				return nil
			}
			for _, run := range history {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  refs=%d stored=%d issues=%d\n",
					run.CompletedAt.Format("2006-01-02 15:04:05"), run.ID,
					run.ReferencedCount, run.StoredCount, run.TotalIssues())
			}
			return nil
		},
	}
}

func repairCmd() *cobra.Command {
	var kinds []string
	var yes bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Repair issues from the last check",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := repairOptions(kinds, yes)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			result, err := e.integrity.BatchRepairLatest(ctx, opts)
			if err != nil {
				if errors.Is(err, domain.ErrConfirmationRequired) {
					return fmt.Errorf("%w: rerun with --yes", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Attempted: %d  Fixed: %d  Already resolved: %d  Failed: %d\n",
				result.Attempted, result.Fixed, result.AlreadyResolved, result.Failed)
			for _, msg := range result.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "issue kinds to repair (broken_url, missing_in_storage, missing_in_db)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion of unreferenced stored objects")
	return cmd
}

func repairOptions(kinds []string, confirm bool) (service.BatchRepairOptions, error) {
	opts := service.BatchRepairOptions{Confirm: confirm}
	for _, raw := range kinds {
		kind := domain.IssueKind(strings.TrimSpace(raw))
		if !kind.IsValid() {
			return opts, fmt.Errorf("%w: %q", domain.ErrUnknownIssueKind, raw)
		}
		opts.Kinds = append(opts.Kinds, kind)
	}
	return opts, nil
}
