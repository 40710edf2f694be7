package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/pid"
	"github.com/san-kum/pidctl/internal/sim"
	"golang.org/x/sync/errgroup"
)

// Compare runs base once per controller config, concurrently. Each run owns
// its plant, controller and metrics. Results are in the order of variants.
func Compare(ctx context.Context, registry *Registry, base *config.Config, variants []pid.Config) ([]*sim.Result, error) {
	results := make([]*sim.Result, len(variants))
	g, ctx := errgroup.WithContext(ctx)

	for i, v := range variants {
		cfg := base.Clone()
		cfg.PID = v
		i := i
		g.Go(func() error {
			exp := New(cfg, registry)
			if err := exp.Setup(); err != nil {
				return fmt.Errorf("variant %d: %w", i+1, err)
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("variant %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
