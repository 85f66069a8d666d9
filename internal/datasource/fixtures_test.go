package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/onepager/pkg/models"
)

func sampleStore(t *testing.T) *FixtureStore {
	t.Helper()
	ds, err := LoadDataset("")
	require.NoError(t, err)
	return NewFixtureStore(ds)
}

func TestLoadDataset_Sample(t *testing.T) {
	ds, err := LoadDataset("")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(ds.Companies), 5)
	assert.Contains(t, ds.Metrics, "AAPL")
	require.NotNil(t, ds.Earnings["AAPL"])
	assert.NotNil(t, ds.Earnings["AAPL"].NextCallDate)
	assert.Nil(t, ds.Earnings["MSFT"].NextCallDate)
}

func TestLoadDataset_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	data := []byte(`
companies:
  - {symbol: ACME, name: Acme Corp, price: 10, change: -1, change_percent: -9.09, market_cap: 1B}
news:
  ACME:
    - {id: a1, title: Acme recalls anvils, source: Wire, published_at: 2024-10-01T12:00:00Z, sentiment: NEGATIVE, impact: high}
    - {id: a2, title: Acme hosts investor day, source: Wire, published_at: 2024-10-02T12:00:00Z, sentiment: mixed}
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, ds.News["ACME"], 2)
	assert.Equal(t, models.SentimentNegative, ds.News["ACME"][0].Sentiment)
	assert.Equal(t, models.Sentiment("mixed"), ds.News["ACME"][1].Sentiment, "unknown labels are kept for the classifier")
}

func TestParseDataset_Invalid(t *testing.T) {
	_, err := ParseDataset([]byte(`companies: [{symbol: aapl, name: Apple}]`))
	assert.True(t, errors.Is(err, models.ErrInvalidRecord))

	_, err = ParseDataset([]byte(`companies: [{symbol: X, name: X, change: 1, change_percent: -1}]`))
	assert.ErrorIs(t, err, models.ErrInvalidRecord)

	_, err = ParseDataset([]byte(`metrics: {X: {profitability: {trend: sideways}, financial_health: {rating: strong}}}`))
	assert.ErrorIs(t, err, models.ErrInvalidRecord)

	_, err = ParseDataset([]byte(`companies: [`))
	assert.Error(t, err)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFixtureStore_Records(t *testing.T) {
	ctx := context.Background()
	f := sampleStore(t)

	c, err := f.Company(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", c.Name)

	news, err := f.CompanyNews(ctx, c, 2)
	require.NoError(t, err)
	assert.Len(t, news, 2)

	ec, err := f.EarningsCall(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2024, ec.Year)

	m, err := f.Metrics(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.TrendImproving, m.Profitability.Trend)

	cs, err := f.Competitors(ctx, "AAPL")
	require.NoError(t, err)
	assert.NotEmpty(t, cs)

	pts, err := f.Chart(ctx, "AAPL")
	require.NoError(t, err)
	assert.Greater(t, len(pts), 1)
}

func TestFixtureStore_MissingRecordsAreNil(t *testing.T) {
	ctx := context.Background()
	f := sampleStore(t)

	ec, err := f.EarningsCall(ctx, "GOOGL")
	assert.NoError(t, err)
	assert.Nil(t, ec)

	m, err := f.Metrics(ctx, "GOOGL")
	assert.NoError(t, err)
	assert.Nil(t, m)

	cs, err := f.Competitors(ctx, "GOOGL")
	assert.NoError(t, err)
	assert.Empty(t, cs)
}

func TestFixtureStore_Trending(t *testing.T) {
	f := NewFixtureStore(&Dataset{
		Trending:  []string{"MSFT", "NOPE", "AAPL"},
		Companies: []models.Company{{Symbol: "AAPL", Name: "Apple Inc."}, {Symbol: "MSFT", Name: "Microsoft Corporation"}},
	})
	got, err := f.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "MSFT", got[0].Symbol)
	assert.Equal(t, "AAPL", got[1].Symbol)
}
