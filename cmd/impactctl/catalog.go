package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Spok95/eco-wardrobe/internal/infra/db"
	"github.com/Spok95/eco-wardrobe/internal/infra/xlsx"
	"github.com/Spok95/eco-wardrobe/internal/seed"
)

func newMigrateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (SQLite schema is created on open)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.lite != "" {
				_, closeFn, err := f.open(cmd.Context())
				if err != nil {
					return err
				}
				closeFn()
				fmt.Fprintf(cmd.OutOrStdout(), "schema ready: %s\n", f.lite)
				return nil
			}
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			if err := db.Migrate(cfg.Postgres.DSN); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the reference materials, impact coefficients and sample items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, closeFn, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := seed.Load(cmd.Context(), st); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d materials, %d impact values, %d items\n",
				len(seed.Materials()), len(seed.Coefficients()), len(seed.Items()))
			return nil
		},
	}
}

func newImportCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.xlsx>",
		Short: "Import materials, impacts, items and compositions from a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = file.Close() }()

			st, closeFn, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			rep, err := xlsx.Import(cmd.Context(), file, st)
			if rep != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d materials, %d impact values, %d items, %d compositions\n",
					rep.Materials, rep.Impacts, rep.Items, rep.Compositions)
			}
			return err
		},
	}
}

type exportFlags struct {
	scores  bool
	profile string
}

func newExportCmd(f *rootFlags) *cobra.Command {
	ef := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Export the catalog (or item scores with --scores) to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var data []byte
			if ef.scores {
				s, err := newScorer(st, ef.profile, "", f.logger(cmd))
				if err != nil {
					return err
				}
				all, err := st.ListItems(cmd.Context())
				if err != nil {
					return err
				}
				codes := make([]string, 0, len(all))
				for _, it := range all {
					codes = append(codes, it.Code)
				}
				results, skipped, err := scoreAll(cmd.Context(), s, codes)
				if err != nil {
					return err
				}
				for _, sk := range skipped {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", sk.Code, sk.Reason)
				}
				if data, err = xlsx.ExportScores(results); err != nil {
					return err
				}
			} else {
				ds, err := xlsx.Collect(cmd.Context(), st)
				if err != nil {
					return err
				}
				if data, err = xlsx.ExportCatalog(ds); err != nil {
					return err
				}
			}

			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&ef.scores, "scores", false, "Export item scores instead of the catalog")
	cmd.Flags().StringVar(&ef.profile, "profile", "", "Scoring profile for --scores")
	return cmd
}

func newDedupeCmd(f *rootFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Keep one impact coefficient per material and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, closeFn, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			conflicts, err := st.Dedupe(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(conflicts) == 0 {
				fmt.Fprintln(out, "no duplicates")
				return nil
			}
			for _, c := range conflicts {
				keep := c.Values[0]
				fmt.Fprintf(out, "%s/%s: keep %g %s (%s), drop %d\n",
					c.Material, c.Category, keep.Value, keep.Unit, keep.Source, len(c.Values)-1)
			}
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing deleted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report duplicates")
	return cmd
}
