package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/onepager/internal/infra"
	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/pkg/models"
	"github.com/seenimoa/onepager/pkg/utils"
)

// Sources wires the collaborators of an Aggregator. Only Catalog is
// required; a nil provider leaves its part of the record set empty.
type Sources struct {
	Catalog     Catalog
	News        NewsProvider
	Earnings    EarningsProvider
	Metrics     MetricsProvider
	Competitors CompetitorProvider
	Chart       ChartProvider
}

// AggregatorOptions tunes record loading.
type AggregatorOptions struct {
	NewsLimit   int
	CacheTTL    time.Duration
	LoadTimeout time.Duration // bounds one shared load; default 30s
	Logger      *logging.Logger
}

// DefaultLoadTimeout bounds a shared load when LoadTimeout is unset.
const DefaultLoadTimeout = 30 * time.Second

// Aggregator loads a full record set for one symbol by fanning out to its
// sources concurrently. Concurrent loads of the same symbol share one
// fetch, and results are cached for CacheTTL.
type Aggregator struct {
	src         Sources
	newsLimit   int
	loadTimeout time.Duration
	cache       *infra.Cache[models.RecordSet]
	group       singleflight.Group
	now         func() time.Time
	logger      *logging.Logger
}

// NewAggregator creates an aggregator over src.
func NewAggregator(src Sources, opts AggregatorOptions) (*Aggregator, error) {
	if src.Catalog == nil {
		return nil, fmt.Errorf("aggregator: catalog is required")
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	return &Aggregator{
		src:         src,
		newsLimit:   opts.NewsLimit,
		loadTimeout: opts.LoadTimeout,
		cache:       infra.NewCache[models.RecordSet](opts.CacheTTL),
		now:         time.Now,
		logger:      logging.OrSilent(opts.Logger).Component("aggregator"),
	}, nil
}

// Catalog returns the configured catalog.
func (a *Aggregator) Catalog() Catalog { return a.src.Catalog }

// Load returns the record set for symbol. A missing company is
// ErrSymbolNotFound; failures of the other sources are recorded in
// RecordSet.Partial and do not fail the load.
//
// The shared fetch is detached from any single caller: it runs until it
// finishes or LoadTimeout expires, and each caller stops waiting when its
// own ctx is done.
func (a *Aggregator) Load(ctx context.Context, symbol string) (models.RecordSet, error) {
	sym := utils.NormalizeSymbol(symbol)
	if rs, ok := a.cache.Get(sym); ok {
		return rs, nil
	}

	ch := a.group.DoChan(sym, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.loadTimeout)
		defer cancel()
		rs, err := a.load(lctx, sym)
		if err != nil {
			return models.RecordSet{}, err
		}
		if !rs.IsPartial() {
			a.cache.Set(sym, rs)
		}
		return rs, nil
	})

	select {
	case <-ctx.Done():
		return models.RecordSet{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.RecordSet{}, res.Err
		}
		if res.Shared {
			a.logger.Debug().Str("symbol", sym).Msg("Shared in-flight load")
		}
		return res.Val.(models.RecordSet), nil
	}
}

// Invalidate drops the cached record set for symbol.
func (a *Aggregator) Invalidate(symbol string) {
	a.cache.Invalidate(utils.NormalizeSymbol(symbol))
}

// RunJanitor evicts expired record sets every interval until ctx is done.
func (a *Aggregator) RunJanitor(ctx context.Context, interval time.Duration) {
	a.cache.RunJanitor(ctx, interval)
}

func (a *Aggregator) load(ctx context.Context, sym string) (models.RecordSet, error) {
	company, err := a.src.Catalog.Company(ctx, sym)
	if err != nil {
		return models.RecordSet{}, err
	}

	rs := models.RecordSet{Company: company}
	var mu sync.Mutex
	fail := func(part string, err error) {
		a.logger.Warn().Err(err).Str("symbol", sym).Str("source", part).Msg("Record load failed")
		mu.Lock()
		rs.Partial = append(rs.Partial, part)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	if p := a.src.News; p != nil {
		g.Go(func() error {
			news, err := p.CompanyNews(gctx, company, a.newsLimit)
			if err != nil {
				fail("news", err)
				return nil // non-fatal
			}
			mu.Lock()
			rs.News = news
			mu.Unlock()
			return nil
		})
	}

	if p := a.src.Earnings; p != nil {
		g.Go(func() error {
			ec, err := p.EarningsCall(gctx, sym)
			if err != nil {
				fail("earnings", err)
				return nil
			}
			mu.Lock()
			rs.EarningsCall = ec
			mu.Unlock()
			return nil
		})
	}

	if p := a.src.Metrics; p != nil {
		g.Go(func() error {
			m, err := p.Metrics(gctx, sym)
			if err != nil {
				fail("metrics", err)
				return nil
			}
			mu.Lock()
			rs.Metrics = m
			mu.Unlock()
			return nil
		})
	}

	if p := a.src.Competitors; p != nil {
		g.Go(func() error {
			cs, err := p.Competitors(gctx, sym)
			if err != nil {
				fail("competitors", err)
				return nil
			}
			mu.Lock()
			rs.Competitors = cs
			mu.Unlock()
			return nil
		})
	}

	if p := a.src.Chart; p != nil {
		g.Go(func() error {
			pts, err := p.Chart(gctx, sym)
			if err != nil {
				fail("chart", err)
				return nil
			}
			mu.Lock()
			rs.Chart = pts
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.RecordSet{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.RecordSet{}, err
	}

	sort.Strings(rs.Partial)
	rs.LoadedAt = a.now().UTC()
	return rs, nil
}
