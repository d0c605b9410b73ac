package container

import (
	"context"
	"fmt"
	"time"

	"cltlab/adapters/generator"
	"cltlab/adapters/memory"
	"cltlab/adapters/rng"
	"cltlab/adapters/sqlstore"
	"cltlab/adapters/stats/normality"
	"cltlab/app"
	"cltlab/internal"
	"cltlab/internal/config"
	"cltlab/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	RNG         *rng.StreamProvider
	Populations *generator.Cache
	Normality   *normality.Tester
	Sessions    ports.SessionRepository

	// Services
	Lab  *app.LabService
	Game *app.GameService

	// sqlStore is set when sessions live in a database and must be closed on shutdown
	sqlStore *sqlstore.SessionRepository
}

// New builds every component from cfg. Sessions go to the store cfg names.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(cfg.Logging.Level)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.initLab(); err != nil {
		return nil, fmt.Errorf("failed to initialize lab: %w", err)
	}
	if err := c.initSessions(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	c.Game = app.NewGameService(c.Sessions, c.Lab, c.RNG, cfg.Game.Mode, logger)

	if c.RNG.Deterministic() {
		logger.Info("container ready (seed %d, population size %d, %d samples per experiment)",
			cfg.Lab.Seed, cfg.Lab.PopulationSize, cfg.Lab.SampleCount)
	} else {
		logger.Info("container ready (entropy seeded, population size %d, %d samples per experiment)",
			cfg.Lab.PopulationSize, cfg.Lab.SampleCount)
	}
	return c, nil
}

// initLab wires the random streams, the population cache and the normality test into the lab
func (c *Container) initLab() error {
	c.RNG = rng.NewStreamProvider(c.Config.Lab.Seed)

	cache, err := generator.NewCache(c.Config.Lab.PopulationSize, c.RNG, c.Logger)
	if err != nil {
		return err
	}
	c.Populations = cache
	c.Normality = normality.NewTester()
	c.Lab = app.NewLabService(c.Populations, c.RNG, c.Normality, c.Config.Lab.SampleCount, c.Logger)
	return nil
}

// initSessions opens the configured session repository
func (c *Container) initSessions(ctx context.Context) error {
	switch c.Config.Game.Store {
	case config.StorePostgres, config.StoreSQLite:
		store, err := sqlstore.Open(ctx, c.Config.Game.Store, c.Config.Game.DSN)
		if err != nil {
			return err
		}
		c.sqlStore = store
		c.Sessions = store
		c.Logger.Info("game sessions stored in %s", c.Config.Game.Store)
	default:
		c.Sessions = memory.NewSessionRepository()
		c.Logger.Debug("game sessions kept in memory")
	}
	return nil
}

// RunSessionJanitor purges idle game sessions every interval until ctx is done
func (c *Container) RunSessionJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Game.PurgeIdle(ctx, c.Config.Game.IdleTimeout); err != nil {
				c.Logger.Warn("session purge failed: %v", err)
			}
		}
	}
}

// Shutdown releases the session store
func (c *Container) Shutdown() error {
	if c.sqlStore != nil {
		return c.sqlStore.Close()
	}
	return nil
}
