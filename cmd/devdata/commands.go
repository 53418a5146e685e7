package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qolzam/natours/internal/database/factory"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/pkg/log"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
	tourmodels "github.com/qolzam/natours/tours/models"
)

const defaultDataFile = "dev-data/data/tours.json"

// openTours connects to the configured backend. Tests replace it with an
// in-memory collection.
var openTours = func(ctx context.Context) (interfaces.Collection[tourmodels.Tour], func(), error) {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load platform config: %w", err)
	}
	backend, err := factory.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := backend.Close(context.Background()); err != nil {
			log.Warn("closing %s backend: %v", backend.Type, err)
		}
	}
	coll, err := factory.NewCollection[tourmodels.Tour](backend, tourmodels.CollectionName, tourmodels.Schema)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := coll.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return coll, closeFn, nil
}

type rootOptions struct {
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "devdata",
		Short: "Import or delete the development tour data",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetVerbose(opts.Verbose)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newImportCommand())
	cmd.AddCommand(newDeleteCommand())
	return cmd
}

func newImportCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Insert every tour from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tours, err := loadTours(file)
			if err != nil {
				return err
			}
			return withTours(cmd.Context(), func(ctx context.Context, coll interfaces.Collection[tourmodels.Tour]) error {
				if err := coll.InsertMany(ctx, tours); err != nil {
					return fmt.Errorf("import %s: %w", file, err)
				}
				log.Debug("inserted %d tours into %s", len(tours), coll.Name())
				fmt.Fprintln(cmd.OutOrStdout(), "Data Imported!")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", defaultDataFile, "tours JSON file")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete every tour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTours(cmd.Context(), func(ctx context.Context, coll interfaces.Collection[tourmodels.Tour]) error {
				n, err := coll.DeleteMany(ctx, map[string]interface{}{})
				if err != nil {
					return fmt.Errorf("delete tours: %w", err)
				}
				log.Debug("deleted %d tours from %s", n, coll.Name())
				fmt.Fprintln(cmd.OutOrStdout(), "Data Cleared!")
				return nil
			})
		},
	}
}

func withTours(ctx context.Context, fn func(context.Context, interfaces.Collection[tourmodels.Tour]) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	coll, closeFn, err := openTours(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, coll)
}

// loadTours reads a JSON array of tours.
func loadTours(path string) ([]*tourmodels.Tour, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var tours []*tourmodels.Tour
	if err := json.Unmarshal(raw, &tours); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tours, nil
}
