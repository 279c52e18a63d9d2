// Package main provides the formcraft CLI: build, list, preview and serve
// dynamic forms.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlovans/formcraft/internal/config"
	"github.com/dlovans/formcraft/internal/logging"
	"github.com/dlovans/formcraft/pkg/store"
)

// cli holds the state shared by every subcommand.
type cli struct {
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "formcraft",
		Short: "formcraft - dynamic form builder and renderer",
		Long: `formcraft builds forms from typed fields, stores them, and renders them
as live sessions whose derived fields recompute as values change.

Run "formcraft serve" for the JSON API, or use the subcommands directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.cfg = cfg

			logger, err := logging.New(cfg.Logging, c.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (YAML); defaults apply when unset")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		c.serveCmd(),
		c.listCmd(),
		c.showCmd(),
		c.saveCmd(),
		c.removeCmd(),
		c.runCmd(),
		c.lintCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openCollection opens the configured backend and binds the form collection.
func (c *cli) openCollection() (*store.Collection, error) {
	blob, err := store.Open(c.cfg.Storage.Driver, c.cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	forms, err := store.NewCollection(blob, c.cfg.Storage.Collection,
		store.WithLogger(c.logger),
		store.WithCacheSize(c.cfg.Storage.CacheSize))
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	c.logger.Debug("collection opened",
		zap.String("driver", c.cfg.Storage.Driver),
		zap.String("path", c.cfg.Storage.Path),
		zap.String("key", forms.Key()))
	return forms, nil
}

// readInput reads path, or the command's stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
