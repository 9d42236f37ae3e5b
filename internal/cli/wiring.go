package cli

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/quarkfield/lightcone/internal/config"
	"github.com/quarkfield/lightcone/internal/engine"
	"github.com/quarkfield/lightcone/internal/store"
)

// loadConfig resolves the effective configuration.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.Default(), nil
}

// buildCore opens the database, replays the journal into a fresh core, and
// installs the routing graph. The caller owns closing the returned DB.
func buildCore(ctx context.Context, cfg config.Config) (*engine.Core, *store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	core := engine.NewCore(cfg.Options(), db)

	// Journal and primitive counts load in parallel; replay itself is
	// ordered.
	var (
		records    []engine.JournalRecord
		primitives int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = db.AllRecords(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		primitives, err = db.CountPrimitives(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load journal: %w", err)
	}

	if len(records) > primitives {
		// A journal row without its primitive means the fact table was
		// tampered with; replay would serve dangling refs.
		db.Close()
		return nil, nil, fmt.Errorf("journal has %d records but only %d primitives", len(records), primitives)
	}

	if err := core.Restore(records); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("replay journal: %w", err)
	}
	core.SetJournal(db)

	if cfg.Graph.Path != "" {
		graph, err := config.LoadGraph(cfg.Graph.Path)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		core.SetGraph(graph)
	}

	return core, db, nil
}
