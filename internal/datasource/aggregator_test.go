package datasource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/onepager/pkg/models"
)

type failingMetrics struct{}

func (failingMetrics) Metrics(context.Context, string) (*models.FinancialMetrics, error) {
	return nil, errors.New("metrics backend down")
}

// countingCatalog counts Company calls and can hold them until released.
type countingCatalog struct {
	Catalog
	calls   int32
	release chan struct{}
}

func (c *countingCatalog) Company(ctx context.Context, symbol string) (models.Company, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.release != nil {
		<-c.release
	}
	return c.Catalog.Company(ctx, symbol)
}

func fixtureSources(t *testing.T) Sources {
	f := sampleStore(t)
	return Sources{Catalog: f, News: f, Earnings: f, Metrics: f, Competitors: f, Chart: f}
}

func TestNewAggregator_RequiresCatalog(t *testing.T) {
	_, err := NewAggregator(Sources{}, AggregatorOptions{})
	assert.Error(t, err)
}

func TestAggregator_LoadFull(t *testing.T) {
	agg, err := NewAggregator(fixtureSources(t), AggregatorOptions{NewsLimit: 3})
	require.NoError(t, err)
	fixed := time.Date(2024, 10, 25, 16, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return fixed }

	rs, err := agg.Load(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rs.Company.Symbol)
	assert.Len(t, rs.News, 3)
	assert.NotNil(t, rs.EarningsCall)
	assert.NotNil(t, rs.Metrics)
	assert.NotEmpty(t, rs.Competitors)
	assert.NotEmpty(t, rs.Chart)
	assert.False(t, rs.IsPartial())
	assert.Equal(t, fixed, rs.LoadedAt)
}

func TestAggregator_NotFound(t *testing.T) {
	agg, _ := NewAggregator(fixtureSources(t), AggregatorOptions{})
	_, err := agg.Load(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestAggregator_PartialFailure(t *testing.T) {
	src := fixtureSources(t)
	src.Metrics = failingMetrics{}
	src.Chart = nil
	agg, _ := NewAggregator(src, AggregatorOptions{CacheTTL: time.Minute})

	rs, err := agg.Load(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"metrics"}, rs.Partial)
	assert.Nil(t, rs.Metrics)
	assert.Empty(t, rs.Chart)
	assert.NotEmpty(t, rs.News)
}

func TestAggregator_CachesCompleteLoads(t *testing.T) {
	src := fixtureSources(t)
	cat := &countingCatalog{Catalog: src.Catalog}
	src.Catalog = cat
	agg, _ := NewAggregator(src, AggregatorOptions{CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := agg.Load(context.Background(), "MSFT")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&cat.calls))

	agg.Invalidate("msft")
	_, err := agg.Load(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&cat.calls))
}

func TestAggregator_CoalescesConcurrentLoads(t *testing.T) {
	src := fixtureSources(t)
	cat := &countingCatalog{Catalog: src.Catalog, release: make(chan struct{})}
	src.Catalog = cat
	agg, _ := NewAggregator(src, AggregatorOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rs, err := agg.Load(context.Background(), "TSLA")
			assert.NoError(t, err)
			assert.Equal(t, "TSLA", rs.Company.Symbol)
		}()
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&cat.calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(cat.release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&cat.calls))
}

func TestAggregator_SharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	src := fixtureSources(t)
	cat := &countingCatalog{Catalog: src.Catalog, release: make(chan struct{})}
	src.Catalog = cat
	agg, _ := NewAggregator(src, AggregatorOptions{})

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := agg.Load(ctx1, "TSLA")
		first <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&cat.calls) == 1 }, time.Second, time.Millisecond)

	type result struct {
		rs  models.RecordSet
		err error
	}
	second := make(chan result, 1)
	go func() {
		rs, err := agg.Load(context.Background(), "TSLA")
		second <- result{rs, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel1()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(cat.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, "TSLA", r.rs.Company.Symbol)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&cat.calls))

	// The detached load still populated the cache.
	_, err := agg.Load(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&cat.calls))
}

func TestAggregator_LoadTimeoutBoundsSharedLoad(t *testing.T) {
	src := fixtureSources(t)
	src.Catalog = blockingCatalog{src.Catalog}
	agg, _ := NewAggregator(src, AggregatorOptions{LoadTimeout: 10 * time.Millisecond})

	_, err := agg.Load(context.Background(), "TSLA")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// blockingCatalog holds Company until ctx ends.
type blockingCatalog struct{ Catalog }

func (blockingCatalog) Company(ctx context.Context, _ string) (models.Company, error) {
	<-ctx.Done()
	return models.Company{}, ctx.Err()
}
