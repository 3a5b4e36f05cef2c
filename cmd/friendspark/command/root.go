// Package command holds the friendspark CLI. The root command serves the
// HTTP API; sub-commands run database migrations and geohash utilities.
//
//	friendspark [-c config.yaml]                 # start the API server
//	friendspark migrate up|down [-c config.yaml]
//	friendspark geohash encode LAT LON [-p N]
//	friendspark geohash decode HASH
//	friendspark geohash neighbors HASH
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"friendspark/config"
	"friendspark/log"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var cfgPath string
	loadConfig := func() (*config.Config, error) {
		path := cfgPath
		if path == "" {
			path = os.Getenv("CONFIG_FILE")
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load(%q): %w", path, err)
		}
		if err := log.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	serve := newServeCommand(loadConfig)
	root := &cobra.Command{
		Use:          "friendspark",
		Short:        "Location-based event discovery backend",
		Long:         "Stores events with a geohash of their location and finds events near a point\nby scanning geohash prefixes.",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"config file path (defaults to $CONFIG_FILE)")
	root.AddCommand(serve, newMigrateCommand(loadConfig), newGeohashCommand())
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
