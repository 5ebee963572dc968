package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

func newScorer(cat scoring.Catalog, profile, profileFile string, log *slog.Logger) (*scoring.Scorer, error) {
	var (
		p   *scoring.Profile
		err error
	)
	if profileFile != "" {
		p, err = scoring.LoadFile(profileFile)
	} else {
		p, err = scoring.LoadBuiltin(profile)
	}
	if err != nil {
		return nil, err
	}
	return scoring.New(cat, p, scoring.WithLogger(log)), nil
}

// scoreAll оценивает коды по порядку; вещи без данных пропускаются, как в корзине.
func scoreAll(ctx context.Context, s *scoring.Scorer, codes []string) ([]*scoring.Result, []scoring.Skipped, error) {
	var (
		results []*scoring.Result
		skipped []scoring.Skipped
	)
	for _, code := range codes {
		res, err := s.ScoreItem(ctx, code)
		switch {
		case errors.Is(err, scoring.ErrNotFound):
			skipped = append(skipped, scoring.Skipped{Code: code, Reason: "not found"})
		case errors.Is(err, scoring.ErrNoComposition):
			skipped = append(skipped, scoring.Skipped{Code: code, Reason: "no composition data"})
		case err != nil:
			return nil, nil, err
		default:
			results = append(results, res)
		}
	}
	return results, skipped, nil
}

type scoreFlags struct {
	profile     string
	profileFile string
	json        bool
	cart        bool
}

func newScoreCmd(f *rootFlags) *cobra.Command {
	sf := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score <code>...",
		Short: "Score items (or a whole cart with --cart)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			s, err := newScorer(st, sf.profile, sf.profileFile, f.logger(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if sf.cart {
				res, err := s.ScoreCart(cmd.Context(), args)
				if err != nil {
					return err
				}
				if sf.json {
					return writeJSON(cmd, res)
				}
				fmt.Fprintf(out, "cart %.1f %s (profile %s, %d items, %d g)\n",
					res.Score, res.Grade, res.Profile, len(res.Items), res.TotalWeightGrams)
				for _, sk := range res.Skipped {
					fmt.Fprintf(out, "skipped %s: %s\n", sk.Code, sk.Reason)
				}
				for _, rec := range res.Recommendations {
					fmt.Fprintln(out, "- "+rec)
				}
				return nil
			}

			results, skipped, err := scoreAll(cmd.Context(), s, args)
			if err != nil {
				return err
			}
			if sf.json {
				return writeJSON(cmd, results)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tSCORE\tGRADE\tWATER\tCARBON\tENERGY")
			for _, r := range results {
				row := []string{r.Item.Code, r.Item.Name, fmt.Sprintf("%.1f", r.Score), r.Grade}
				for _, c := range impacts.Categories {
					cs, _ := r.Category(c)
					row = append(row, fmt.Sprintf("%.2f %s", cs.Raw, cs.Unit))
				}
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, sk := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", sk.Code, sk.Reason)
			}
			if len(results) == 0 {
				return errors.New("nothing scored")
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&sf.profile, "profile", "", "Builtin profile: "+strings.Join(scoring.Builtins(), ", "))
	fl.StringVar(&sf.profileFile, "profile-file", "", "YAML profile file (overrides --profile)")
	fl.BoolVar(&sf.json, "json", false, "Print JSON")
	fl.BoolVar(&sf.cart, "cart", false, "Score all codes together as a cart")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List builtin scoring profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tWATER\tCARBON\tENERGY\tDYNAMIC\tLASTING\tDESCRIPTION")
			for _, name := range scoring.Builtins() {
				p, err := scoring.LoadBuiltin(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%t\t%t\t%s\n", p.Name,
					p.Weights[impacts.Water], p.Weights[impacts.Carbon], p.Weights[impacts.Energy],
					p.DynamicRanges, p.Lasting != nil, p.Description)
			}
			return tw.Flush()
		},
	}
}
