package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-scout/internal/thumbnail"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the thumbnail cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Delete every cached thumbnail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := thumbnail.NewStore(a.settings.CacheDir, a.http, a.logger)
			if err != nil {
				return err
			}
			n, err := s.Clean()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files from %s\n", n, s.Dir())
			return nil
		},
	})
	return cmd
}
