package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/onepager/internal/analysis/sentiment"
	"github.com/seenimoa/onepager/internal/infra"
	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/pkg/models"
)

// FeedSource is one RSS feed. A URL containing "%s" is a per-symbol feed
// and gets the ticker substituted; any other URL is a market-wide feed
// whose items are filtered by the company's symbol and name.
type FeedSource struct {
	Name string
	URL  string
}

// PerSymbol reports whether the feed is parameterized by ticker.
func (f FeedSource) PerSymbol() bool {
	return strings.Contains(f.URL, "%s")
}

// DefaultFeeds lists the configured US financial news RSS feeds.
var DefaultFeeds = []FeedSource{
	{Name: "Yahoo Finance", URL: "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"},
	{Name: "Nasdaq", URL: "https://www.nasdaq.com/feed/rssoutbound?symbol=%s"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
}

// ParseFeedSources parses config entries of the form "Name|URL" or a bare
// URL, in which case the host names the feed.
func ParseFeedSources(entries []string) ([]FeedSource, error) {
	out := make([]FeedSource, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		name, raw, found := strings.Cut(e, "|")
		if !found {
			raw, name = name, ""
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid feed URL %q", raw)
		}
		if name = strings.TrimSpace(name); name == "" {
			name = u.Host
		}
		out = append(out, FeedSource{Name: name, URL: strings.TrimSpace(raw)})
	}
	return out, nil
}

// RSSOptions configures RSSNews.
type RSSOptions struct {
	Feeds      []FeedSource
	RatePerSec float64 // outbound request rate; 0 disables limiting
	CacheTTL   time.Duration
	Client     *http.Client
	Logger     *logging.Logger
}

// RSSNews fetches company news from RSS feeds and labels each item with
// the keyword sentiment scorer.
type RSSNews struct {
	sources []FeedSource
	client  *http.Client
	cache   *infra.Cache[[]models.NewsItem]
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
	logger  *logging.Logger
}

var _ NewsProvider = (*RSSNews)(nil)

// NewRSSNews creates an RSS news source. Empty Feeds selects DefaultFeeds.
func NewRSSNews(opts RSSOptions) *RSSNews {
	sources := opts.Feeds
	if len(sources) == 0 {
		sources = DefaultFeeds
	}
	return &RSSNews{
		sources: sources,
		client:  opts.Client,
		cache:   infra.NewCache[[]models.NewsItem](opts.CacheTTL),
		limiter: infra.NewRateLimiter(opts.RatePerSec, 1),
		parser:  gofeed.NewParser(),
		logger:  logging.OrSilent(opts.Logger).Component("rss"),
	}
}

// Name returns the data source name.
func (n *RSSNews) Name() string { return "rss" }

// CompanyNews returns recent items about company from every feed, newest
// first. Failing feeds are skipped; an error is returned only when every
// feed fails.
func (n *RSSNews) CompanyNews(ctx context.Context, company models.Company, limit int) ([]models.NewsItem, error) {
	cacheKey := fmt.Sprintf("news:%s:%d", company.Symbol, limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached, nil
	}

	var (
		all  []models.NewsItem
		errs []error
		seen = make(map[string]bool)
	)
	keywords := companyKeywords(company)
	for _, src := range n.sources {
		items, err := n.fetchFeed(ctx, src, company.Symbol)
		if err != nil {
			n.logger.Warn().Err(err).Str("feed", src.Name).Str("symbol", company.Symbol).Msg("Feed fetch failed")
			errs = append(errs, err)
			continue
		}
		for _, it := range items {
			if !src.PerSymbol() && !matchesAny(it.Title+" "+it.Summary, keywords) {
				continue
			}
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			all = append(all, sentiment.Infer(it))
		}
	}
	if len(errs) == len(n.sources) && len(errs) > 0 {
		return nil, fmt.Errorf("all feeds failed for %s: %w", company.Symbol, errors.Join(errs...))
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	n.cache.Set(cacheKey, all)
	return all, nil
}

// fetchFeed downloads and parses one feed.
func (n *RSSNews) fetchFeed(ctx context.Context, src FeedSource, symbol string) ([]models.NewsItem, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feedURL := src.URL
	if src.PerSymbol() {
		feedURL = fmt.Sprintf(src.URL, url.QueryEscape(symbol))
	}
	body, err := doGet(ctx, n.client, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch RSS %s: %w", src.Name, err)
	}
	defer body.Close()

	feed, err := n.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		ref := it.Link
		if ref == "" {
			ref = it.GUID
		}
		if ref == "" {
			ref = src.Name + "|" + it.Title
		}
		item := models.NewsItem{
			ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(ref)).String(),
			Title:   strings.TrimSpace(it.Title),
			Summary: cleanHTML(it.Description),
			Source:  src.Name,
			URL:     it.Link,
		}
		switch {
		case it.PublishedParsed != nil:
			item.PublishedAt = it.PublishedParsed.UTC()
		case it.UpdatedParsed != nil:
			item.PublishedAt = it.UpdatedParsed.UTC()
		}
		items = append(items, item)
	}
	return items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// companyKeywords returns the lower-cased terms that identify a company in
// a market-wide headline: the ticker and the name without its legal suffix.
// For example, "Apple Inc." → ["aapl", "apple"].
func companyKeywords(c models.Company) []string {
	keywords := []string{strings.ToLower(c.Symbol)}
	name := strings.ToLower(c.Name)
	for _, suffix := range []string{" inc.", " inc", " corporation", " corp.", " corp", " ltd", " plc", " co."} {
		name = strings.TrimSuffix(name, suffix)
	}
	name = strings.TrimRight(strings.TrimSpace(name), ".,")
	if name != "" {
		keywords = append(keywords, name)
	}
	return keywords
}

// matchesAny checks if text contains any of the keywords as whole words
// (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	padded := " " + normalizeWords(text) + " "
	for _, kw := range keywords {
		if kw = normalizeWords(kw); kw != "" && strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

// normalizeWords lower-cases s and collapses every run of non-alphanumeric
// runes to a single space.
func normalizeWords(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&'
	}), " ")
}
