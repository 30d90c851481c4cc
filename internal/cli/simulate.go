package cli

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/gacha"
	"github.com/xtding233/gacha-scout/internal/rates"
	"github.com/xtding233/gacha-scout/internal/token"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		box        string
		trials     int
		seed       uint64
		overrides  []string
		guaranteed bool
		until      string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate box rates by Monte Carlo simulation",
		Long: `Simulate rolls the rarity table of a box many times and prints the
observed frequency of each rarity next to its configured rate, followed by
how many single draws it takes to reach a rarity and what that costs.`,
		Example: `  scoutctl simulate --box honour --trials 200000
  scoutctl simulate --rate UR=0.02 --rate R=0.79 --until UR`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if box == "" {
				box = a.settings.DefaultBox
			}
			b := gacha.Box(strings.ToLower(box))
			if trials < 1 {
				return fmt.Errorf("trials must be >= 1")
			}
			target, err := card.ParseRarity(until)
			if err != nil {
				return err
			}
			o := rates.Overrides{}
			for _, s := range overrides {
				if err := o.ParseOverride(s); err != nil {
					return err
				}
			}
			base, err := rates.NewLoader(a.settings.RatesDir).Load(b)
			if err != nil {
				return err
			}
			table, err := rates.Resolve(base, o)
			if err != nil {
				return err
			}

			var rng gacha.RandomSource = gacha.DefaultRNG()
			if seed != 0 {
				rng = gacha.NewSeededRNG(seed)
			}
			freq := gacha.SimulateFrequencies(table, guaranteed, trials, rng)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "box %s, %d trials\n\n", b, trials)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RARITY\tRATE\tOBSERVED")
			for _, r := range card.Ladder {
				if table[r] == 0 && freq[r] == 0 {
					continue
				}
				fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", r, table[r], freq[r])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			stats, err := gacha.SimulateDrawsUntil(table, target, trials, rng)
			if err != nil {
				fmt.Fprintf(w, "\n%s or better: %v\n", target, err)
				return nil
			}
			price := func(draws float64) string {
				return token.Loveca.Format(token.Loveca.ForDraws(int(math.Ceil(draws))))
			}
			fmt.Fprintf(w, "\ndraws until %s or better\n", target)
			fmt.Fprintf(w, "  mean %.2f (sd %.2f)  %s\n", stats.Mean, stats.StdDev, price(stats.Mean))
			fmt.Fprintf(w, "  p50  %.0f  %s\n", stats.P50, price(stats.P50))
			fmt.Fprintf(w, "  p90  %.0f  %s\n", stats.P90, price(stats.P90))
			fmt.Fprintf(w, "  p99  %.0f  %s\n", stats.P99, price(stats.P99))
			return nil
		},
	}
	cmd.Flags().StringVarP(&box, "box", "b", "", "scouting box (default from settings)")
	cmd.Flags().IntVarP(&trials, "trials", "n", 100000, "number of simulated rolls")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible runs")
	cmd.Flags().StringArrayVar(&overrides, "rate", nil, "override one rate, RARITY=P (repeatable)")
	cmd.Flags().BoolVarP(&guaranteed, "guaranteed", "g", false, "roll every slot as a guaranteed slot")
	cmd.Flags().StringVar(&until, "until", "SR", "rarity to count draws until")
	return cmd
}
