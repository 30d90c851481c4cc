// Package cli implements the scoutctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/card/remote"
	"github.com/xtding233/gacha-scout/internal/card/sqlite"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool

	settings Settings
	logger   *slog.Logger
	http     *http.Client
}

// NewRootCmd builds the scoutctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "scoutctl",
		Short: "Draw, render and simulate idol card scouts",
		Long: `scoutctl runs scouts against the local card catalog or the card API,
renders the results as images and simulates box rates.

Settings are read from $XDG_CONFIG_HOME/gacha-scout/config.toml, which is
created with defaults on first use.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/gacha-scout/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newDrawCmd(a),
		newRenderCmd(a),
		newSimulateCmd(a),
		newCacheCmd(a),
		newCardsCmd(a),
	)
	return root
}

// Execute runs scoutctl with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(stderr io.Writer) error {
	path := a.configPath
	if path == "" {
		path = SettingsPath()
	}
	s, err := LoadSettings(path)
	if err != nil {
		return err
	}
	a.settings = s
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	a.http = &http.Client{Timeout: 30 * time.Second}
	return nil
}

func (a *app) remote() *remote.Client {
	return remote.NewClient(a.http, a.settings.APIURL, a.logger)
}

func (a *app) catalog() (*sqlite.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.settings.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return sqlite.Open(a.settings.DBPath)
}

// pool returns the card API when useRemote is set, else the local catalog.
// The returned closer is never nil.
func (a *app) pool(useRemote bool) (card.Pool, func() error, error) {
	if useRemote {
		return a.remote(), func() error { return nil }, nil
	}
	store, err := a.catalog()
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
