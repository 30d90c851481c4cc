package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-scout/internal/card"
)

func newCardsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage the local card catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Copy new cards from the card API into the local catalog",
		Long: fmt.Sprintf(`Sync lists card ids upstream, fetches at most %d cards missing locally
and stores the ones that carry both artwork and a thumbnail. Run it
repeatedly to catch up on a fresh catalog.`, card.MaxSyncBatch),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.catalog()
			if err != nil {
				return err
			}
			defer store.Close()
			res, err := card.NewSyncer(a.remote(), store, a.logger).SyncOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "missing %d, stored %d, rejected %d\n", res.Missing, res.Stored, res.Rejected)
			return nil
		},
	})
	return cmd
}
