package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seenimoa/onepager/pkg/models"
)

// NewsChain tries each provider in order and returns the first non-empty
// result. An empty but successful answer falls through to the next
// provider and is returned only if nothing later has items.
type NewsChain []NewsProvider

var _ NewsProvider = NewsChain(nil)

// Name lists the chained providers, e.g. "alpaca>rss>fixture".
func (c NewsChain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

// CompanyNews returns the first provider's non-empty news for company.
func (c NewsChain) CompanyNews(ctx context.Context, company models.Company, limit int) ([]models.NewsItem, error) {
	var (
		errs      []error
		succeeded bool
	)
	for _, p := range c {
		items, err := p.CompanyNews(ctx, company, limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		succeeded = true
		if len(items) > 0 {
			return items, nil
		}
	}
	if succeeded || len(c) == 0 {
		return []models.NewsItem{}, nil
	}
	return nil, errors.Join(errs...)
}
