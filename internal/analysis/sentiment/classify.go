// Package sentiment groups company news by tone and infers tone for
// headlines that arrive without one.
package sentiment

import (
	"sort"

	"github.com/seenimoa/onepager/pkg/models"
)

// Buckets is the partition of a news list by sentiment. Each bucket keeps
// the relative order the items had in the input.
type Buckets struct {
	Positive []models.NewsItem `json:"positive"`
	Negative []models.NewsItem `json:"negative"`
	Neutral  []models.NewsItem `json:"neutral"`
}

// Len returns the total number of classified items.
func (b Buckets) Len() int {
	return len(b.Positive) + len(b.Negative) + len(b.Neutral)
}

// Classify partitions news into sentiment buckets. Every input item lands in
// exactly one bucket; items with an unrecognised label count as neutral.
func Classify(news []models.NewsItem) Buckets {
	var b Buckets
	for _, item := range news {
		switch item.Sentiment {
		case models.SentimentPositive:
			b.Positive = append(b.Positive, item)
		case models.SentimentNegative:
			b.Negative = append(b.Negative, item)
		default:
			b.Neutral = append(b.Neutral, item)
		}
	}
	return b
}

// Group is one titled bucket ready for display.
type Group struct {
	Sentiment models.Sentiment  `json:"sentiment"`
	Title     string            `json:"title"`
	Items     []models.NewsItem `json:"items"`
}

// Groups returns the non-empty buckets in display order: negative,
// positive, then neutral industry coverage.
func (b Buckets) Groups() []Group {
	all := []Group{
		{Sentiment: models.SentimentNegative, Title: "Negative News", Items: b.Negative},
		{Sentiment: models.SentimentPositive, Title: "Positive News", Items: b.Positive},
		{Sentiment: models.SentimentNeutral, Title: "Industry/Market News", Items: b.Neutral},
	}
	groups := all[:0]
	for _, g := range all {
		if len(g.Items) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// Feed returns all items newest first. Items published at the same instant
// keep their input order. The input slice is not modified.
func Feed(news []models.NewsItem) []models.NewsItem {
	out := make([]models.NewsItem, len(news))
	copy(out, news)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}
