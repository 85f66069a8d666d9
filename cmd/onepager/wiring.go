package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seenimoa/onepager/internal/config"
	"github.com/seenimoa/onepager/internal/datasource"
	"github.com/seenimoa/onepager/internal/logging"
)

// stack is the data layer shared by every command.
type stack struct {
	store   *datasource.FixtureStore
	catalog datasource.Catalog
	news    datasource.NewsProvider
	agg     *datasource.Aggregator
	closers []func() error
}

// buildStack wires catalog, news and aggregator from the configuration.
func buildStack(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*stack, error) {
	ds, err := datasource.LoadDataset(cfg.Data.FixturesPath)
	if err != nil {
		return nil, err
	}
	st := &stack{store: datasource.NewFixtureStore(ds)}

	st.catalog, err = openCatalog(ctx, cfg, st, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	st.news, err = newsProvider(cfg, st.store, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	st.agg, err = datasource.NewAggregator(datasource.Sources{
		Catalog:     st.catalog,
		News:        st.news,
		Earnings:    st.store,
		Metrics:     st.store,
		Competitors: st.store,
		Chart:       st.store,
	}, datasource.AggregatorOptions{
		NewsLimit:   cfg.News.Limit,
		CacheTTL:    time.Duration(cfg.Data.CacheTTL) * time.Second,
		LoadTimeout: time.Duration(cfg.Data.LoadTimeout) * time.Second,
		Logger:      logger,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func openCatalog(ctx context.Context, cfg *config.Config, st *stack, logger *logging.Logger) (datasource.Catalog, error) {
	if cfg.Data.Catalog != "sqlite" {
		return st.store, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Data.SQLitePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}
	db, err := datasource.OpenSQLiteCatalog(ctx, cfg.Data.SQLitePath)
	if err != nil {
		return nil, err
	}
	st.closers = append(st.closers, db.Close)

	all, err := st.store.All(ctx)
	if err != nil {
		return nil, err
	}
	added, err := db.Seed(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("seeding catalog: %w", err)
	}
	logger.Debug().Str("path", cfg.Data.SQLitePath).Int("added", added).Msg("SQLite catalog ready")
	return db, nil
}

// newsProvider selects the configured news source. Live sources fall back
// to the bundled dataset when they return nothing.
func newsProvider(cfg *config.Config, store *datasource.FixtureStore, logger *logging.Logger) (datasource.NewsProvider, error) {
	ttl := time.Duration(cfg.Data.CacheTTL) * time.Second
	switch cfg.News.Provider {
	case "rss":
		feeds, err := datasource.ParseFeedSources(cfg.News.Feeds)
		if err != nil {
			return nil, err
		}
		rss := datasource.NewRSSNews(datasource.RSSOptions{
			Feeds:      feeds,
			RatePerSec: cfg.News.RateLimit,
			CacheTTL:   ttl,
			Logger:     logger,
		})
		return datasource.NewsChain{rss, store}, nil
	case "alpaca":
		if !cfg.HasAlpacaCredentials() {
			return nil, fmt.Errorf("news.provider alpaca needs %s_NEWS_ALPACA_KEY and %s_NEWS_ALPACA_SECRET", config.EnvPrefix, config.EnvPrefix)
		}
		alpaca := datasource.NewAlpacaNews(datasource.AlpacaOptions{
			APIKey:       cfg.News.AlpacaKey,
			APISecret:    cfg.News.AlpacaSecret,
			LookbackDays: cfg.News.LookbackDays,
			RatePerSec:   cfg.News.RateLimit,
			CacheTTL:     ttl,
			Logger:       logger,
		})
		return datasource.NewsChain{alpaca, store}, nil
	default:
		return store, nil
	}
}

// Close releases the catalog database, if any.
func (s *stack) Close() {
	for _, c := range s.closers {
		_ = c()
	}
}
