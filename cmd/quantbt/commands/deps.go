package commands

import (
	"fmt"
	"time"

	"github.com/wonny/quantbt/internal/data"
	"github.com/wonny/quantbt/pkg/config"
	"github.com/wonny/quantbt/pkg/database"
	"github.com/wonny/quantbt/pkg/logger"
	"github.com/wonny/quantbt/pkg/redis"
)

// deps bundles the shared wiring every data-touching command needs.
type deps struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	cache *redis.Cache
	repo  *data.HistoryRepository
}

// initDeps loads config and connects the database and (optional) cache.
// Callers must invoke close when done.
func initDeps() (*deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	rds, err := redis.New(cfg)
	if err != nil {
		// Cache is an accelerator, not a dependency
		log.WithError(err).Warn("Redis unavailable, running without cache")
		rds = redis.Disabled()
	}

	var cache *redis.Cache
	if rds.Enabled() {
		cache = redis.NewCache(rds, "quantbt")
	}

	d := &deps{
		cfg:   cfg,
		log:   log,
		db:    db,
		cache: cache,
		repo:  data.NewHistoryRepository(db.Pool, cache),
	}
	return d, func() { db.Close() }, nil
}

// parseDate parses a YYYY-MM-DD flag value.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
