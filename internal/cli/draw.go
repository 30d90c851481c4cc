package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/gacha"
	"github.com/xtding233/gacha-scout/internal/rates"
	"github.com/xtding233/gacha-scout/internal/scout"
	"github.com/xtding233/gacha-scout/internal/thumbnail"
)

// drawFlags are shared by draw and render.
type drawFlags struct {
	box        string
	guaranteed bool
	filters    []string
	seed       uint64
	remote     bool
}

func (f *drawFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.box, "box", "b", "", "scouting box (default from settings)")
	cmd.Flags().BoolVarP(&f.guaranteed, "guaranteed", "g", false, "guarantee one SR or better in a multi-card scout")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "restrict the pool, DIMENSION=v1,v2 (repeatable)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed the random source for a reproducible draw")
	cmd.Flags().BoolVar(&f.remote, "remote", false, "sample from the card API instead of the local catalog")
}

func (f *drawFlags) request(defaultBox string, args []string) (gacha.DrawRequest, error) {
	req := gacha.DrawRequest{Box: gacha.Box(strings.ToLower(defaultBox)), Count: 1}
	if f.box != "" {
		req.Box = gacha.Box(strings.ToLower(f.box))
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return req, fmt.Errorf("count must be a positive integer, got %q", args[0])
		}
		req.Count = n
	}
	req.GuaranteedRare = f.guaranteed
	filter, err := parseFilters(f.filters)
	if err != nil {
		return req, err
	}
	req.Filter = filter
	return req, nil
}

func (f *drawFlags) rng() gacha.RandomSource {
	if f.seed == 0 {
		return gacha.DefaultRNG()
	}
	return gacha.NewSeededRNG(f.seed)
}

func parseFilters(specs []string) (card.Filter, error) {
	f := card.Filter{}
	for _, s := range specs {
		name, vals, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("filter %q: want DIMENSION=v1,v2", s)
		}
		d, err := card.ParseDimension(name)
		if err != nil {
			return nil, err
		}
		f.Add(d, strings.Split(vals, ",")...)
	}
	return f, nil
}

func (a *app) engine(pool card.Pool, rng gacha.RandomSource) (*gacha.Engine, error) {
	book, err := rates.NewLoader(a.settings.RatesDir).LoadBook()
	if err != nil {
		return nil, err
	}
	return gacha.NewEngine(book, pool, rng, gacha.WithLogger(a.logger))
}

func newDrawCmd(a *app) *cobra.Command {
	var f drawFlags
	cmd := &cobra.Command{
		Use:   "draw [count]",
		Short: "Draw cards and list them",
		Example: `  scoutctl draw 11 --guaranteed
  scoutctl draw 5 --box coupon -f main_unit=Aqours -f year=First,Second`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(a.settings.DefaultBox, args)
			if err != nil {
				return err
			}
			pool, closePool, err := a.pool(f.remote)
			if err != nil {
				return err
			}
			defer closePool()
			e, err := a.engine(pool, f.rng())
			if err != nil {
				return err
			}
			cards, err := e.Draw(cmd.Context(), req)
			if err != nil {
				return err
			}
			printCards(cmd.OutOrStdout(), cards)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		f      drawFlags
		out    string
		rows   int
		align  bool
		labels bool
	)
	cmd := &cobra.Command{
		Use:   "render [count]",
		Short: "Draw cards and write the scout image",
		Long: `Render draws cards like draw and writes the result image. A single card
is written as its full-size artwork; more cards are composited into a grid
of round thumbnails. Thumbnails are cached in the settings cache_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(a.settings.DefaultBox, args)
			if err != nil {
				return err
			}
			pool, closePool, err := a.pool(f.remote)
			if err != nil {
				return err
			}
			defer closePool()
			e, err := a.engine(pool, f.rng())
			if err != nil {
				return err
			}
			thumbs, err := thumbnail.NewStore(a.settings.CacheDir, a.http, a.logger)
			if err != nil {
				return err
			}
			svc := scout.NewService(e, thumbs, scout.WithLogger(a.logger))
			res, err := svc.Scout(cmd.Context(), req, scout.ScoutOptions{Rows: rows, Align: align, Labels: labels})
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = res.Name
			}
			if err := os.WriteFile(path, res.Image, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			printCards(cmd.OutOrStdout(), res.Cards)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Clean(path))
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: generated name in the working directory)")
	cmd.Flags().IntVar(&rows, "rows", 0, "composite row count (default 2)")
	cmd.Flags().BoolVar(&align, "align", false, "left-align composite rows")
	cmd.Flags().BoolVar(&labels, "labels", false, "overlay rarity and attribute on each tile")
	return cmd
}

var rarityColors = map[card.Rarity]color.Attribute{
	card.N:   color.FgWhite,
	card.R:   color.FgBlue,
	card.SR:  color.FgYellow,
	card.SSR: color.FgMagenta,
	card.UR:  color.FgHiRed,
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printCards(w io.Writer, cards []card.Card) {
	tty := isTerminal(w)
	for _, c := range cards {
		rc := color.New(rarityColors[c.Rarity], color.Bold)
		if !tty {
			rc.DisableColor()
		}
		fmt.Fprintf(w, "%-4s %s #%d %s\n", rc.Sprint(c.Rarity), c.Name, c.ID, c.Attribute)
	}
	if unique := card.Unique(cards); len(unique) < len(cards) {
		fmt.Fprintf(w, "%d cards, %d unique\n", len(cards), len(unique))
	}
}
