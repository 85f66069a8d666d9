package datasource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/seenimoa/onepager/internal/analysis/sentiment"
	"github.com/seenimoa/onepager/internal/infra"
	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/pkg/models"
)

// alpacaNewsClient is the subset of the marketdata client used here.
type alpacaNewsClient interface {
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// AlpacaOptions configures AlpacaNews.
type AlpacaOptions struct {
	APIKey       string
	APISecret    string
	LookbackDays int     // window of news to request; default 7
	RatePerSec   float64 // outbound request rate; 0 disables limiting
	CacheTTL     time.Duration
	Logger       *logging.Logger
}

// AlpacaNews fetches company news from the Alpaca market data news API.
type AlpacaNews struct {
	client   alpacaNewsClient
	lookback time.Duration
	cache    *infra.Cache[[]models.NewsItem]
	limiter  *infra.RateLimiter
	now      func() time.Time
	logger   *logging.Logger
}

var _ NewsProvider = (*AlpacaNews)(nil)

// NewAlpacaNews creates an Alpaca news source.
func NewAlpacaNews(opts AlpacaOptions) *AlpacaNews {
	mdc := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	})
	return newAlpacaNews(mdc, opts)
}

func newAlpacaNews(client alpacaNewsClient, opts AlpacaOptions) *AlpacaNews {
	days := opts.LookbackDays
	if days <= 0 {
		days = 7
	}
	return &AlpacaNews{
		client:   client,
		lookback: time.Duration(days) * 24 * time.Hour,
		cache:    infra.NewCache[[]models.NewsItem](opts.CacheTTL),
		limiter:  infra.NewRateLimiter(opts.RatePerSec, 1),
		now:      time.Now,
		logger:   logging.OrSilent(opts.Logger).Component("alpaca"),
	}
}

// Name returns the data source name.
func (a *AlpacaNews) Name() string { return "alpaca" }

// CompanyNews returns the newest articles tagged with company's symbol.
func (a *AlpacaNews) CompanyNews(ctx context.Context, company models.Company, limit int) ([]models.NewsItem, error) {
	cacheKey := fmt.Sprintf("news:%s:%d", company.Symbol, limit)
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached, nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	end := a.now().UTC()
	req := marketdata.GetNewsRequest{
		Symbols: []string{company.Symbol},
		Start:   end.Add(-a.lookback),
		End:     end,
		Sort:    marketdata.SortDesc,
	}
	if limit > 0 {
		req.TotalLimit = limit
	}

	// The marketdata client takes no context; honor cancellation around it.
	type result struct {
		news []marketdata.News
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		news, err := a.client.GetNews(req)
		ch <- result{news, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.err != nil {
		return nil, fmt.Errorf("alpaca news %s: %w", company.Symbol, res.err)
	}

	items := make([]models.NewsItem, 0, len(res.news))
	for _, n := range res.news {
		summary := n.Summary
		if summary == "" && n.Content != "" {
			summary = cleanHTML(n.Content)
		}
		source := n.Author
		if source == "" {
			source = "Alpaca"
		}
		items = append(items, sentiment.Infer(models.NewsItem{
			ID:          "alpaca-" + strconv.Itoa(n.ID),
			Title:       n.Headline,
			Summary:     summary,
			Source:      source,
			URL:         n.URL,
			PublishedAt: n.CreatedAt.UTC(),
		}))
	}
	a.logger.Debug().Str("symbol", company.Symbol).Int("items", len(items)).Msg("Fetched news")

	a.cache.Set(cacheKey, items)
	return items, nil
}
