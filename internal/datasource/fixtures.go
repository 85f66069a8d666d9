package datasource

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/onepager/pkg/models"
)

//go:embed data/sample.yaml
var sampleDataset []byte

// Dataset is the on-disk fixture format. Per-symbol maps are keyed by
// ticker.
type Dataset struct {
	Trending    []string                            `yaml:"trending"`
	Companies   []models.Company                    `yaml:"companies"`
	News        map[string][]models.NewsItem        `yaml:"news"`
	Earnings    map[string]*models.EarningsCall     `yaml:"earnings"`
	Metrics     map[string]*models.FinancialMetrics `yaml:"metrics"`
	Competitors map[string][]models.CompetitorData  `yaml:"competitors"`
	Charts      map[string][]models.ChartPoint      `yaml:"charts"`
}

// ParseDataset decodes and validates a YAML dataset.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for _, c := range ds.Companies {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	for sym, m := range ds.Metrics {
		if m == nil {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("metrics for %s: %w", sym, err)
		}
	}
	// Unknown sentiment labels are kept as-is; the classifier files them
	// under neutral.
	for _, items := range ds.News {
		for i, n := range items {
			if s, err := models.ParseSentiment(string(n.Sentiment)); err == nil {
				items[i].Sentiment = s
			}
		}
	}
	return &ds, nil
}

// LoadDataset reads a dataset from path, or the built-in sample dataset
// when path is empty.
func LoadDataset(path string) (*Dataset, error) {
	if path == "" {
		return ParseDataset(sampleDataset)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data)
}

// FixtureStore serves every record kind from an in-memory dataset. It
// backs the default configuration and the tests.
type FixtureStore struct {
	*StaticCatalog
	ds *Dataset
}

var (
	_ Catalog            = (*FixtureStore)(nil)
	_ NewsProvider       = (*FixtureStore)(nil)
	_ EarningsProvider   = (*FixtureStore)(nil)
	_ MetricsProvider    = (*FixtureStore)(nil)
	_ CompetitorProvider = (*FixtureStore)(nil)
	_ ChartProvider      = (*FixtureStore)(nil)
)

// NewFixtureStore wraps ds.
func NewFixtureStore(ds *Dataset) *FixtureStore {
	if ds == nil {
		ds = &Dataset{}
	}
	return &FixtureStore{StaticCatalog: NewStaticCatalog(ds.Companies), ds: ds}
}

// Name returns the source name.
func (f *FixtureStore) Name() string { return "fixture" }

// Trending returns the homepage list. Unknown symbols are skipped.
func (f *FixtureStore) Trending(ctx context.Context) ([]models.Company, error) {
	out := make([]models.Company, 0, len(f.ds.Trending))
	for _, sym := range f.ds.Trending {
		c, err := f.Company(ctx, sym)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// CompanyNews returns the fixture news for company in file order.
func (f *FixtureStore) CompanyNews(_ context.Context, company models.Company, limit int) ([]models.NewsItem, error) {
	items := f.ds.News[key(company.Symbol)]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.NewsItem, len(items))
	copy(out, items)
	return out, nil
}

// EarningsCall returns the latest call or nil.
func (f *FixtureStore) EarningsCall(_ context.Context, symbol string) (*models.EarningsCall, error) {
	ec, ok := f.ds.Earnings[key(symbol)]
	if !ok || ec == nil {
		return nil, nil
	}
	cp := *ec
	return &cp, nil
}

// Metrics returns the financial metrics or nil.
func (f *FixtureStore) Metrics(_ context.Context, symbol string) (*models.FinancialMetrics, error) {
	m, ok := f.ds.Metrics[key(symbol)]
	if !ok || m == nil {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// Competitors returns the competitive landscape.
func (f *FixtureStore) Competitors(_ context.Context, symbol string) ([]models.CompetitorData, error) {
	return append([]models.CompetitorData(nil), f.ds.Competitors[key(symbol)]...), nil
}

// Chart returns intraday chart points.
func (f *FixtureStore) Chart(_ context.Context, symbol string) ([]models.ChartPoint, error) {
	return append([]models.ChartPoint(nil), f.ds.Charts[key(symbol)]...), nil
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
