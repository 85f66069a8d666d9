package models

import (
	"fmt"
	"strings"
	"time"
)

// Sentiment is the tone bucket of a news item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the known buckets.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// ParseSentiment normalizes and validates a sentiment label.
func ParseSentiment(v string) (Sentiment, error) {
	s := Sentiment(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown sentiment %q", ErrInvalidRecord, v)
	}
	return s, nil
}

// Impact grades how much a positive or negative item matters.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Valid reports whether i is a known impact level.
func (i Impact) Valid() bool {
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// ParseImpact normalizes and validates an impact label.
func ParseImpact(v string) (Impact, error) {
	i := Impact(strings.ToLower(strings.TrimSpace(v)))
	if !i.Valid() {
		return "", fmt.Errorf("%w: unknown impact %q", ErrInvalidRecord, v)
	}
	return i, nil
}

// NewsItem is a single headline attached to a company.
type NewsItem struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Summary     string    `json:"summary" yaml:"summary"`
	Source      string    `json:"source" yaml:"source"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
	Sentiment   Sentiment `json:"sentiment" yaml:"sentiment"`
	Impact      Impact    `json:"impact,omitempty" yaml:"impact,omitempty"`     // positive/negative only
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"` // neutral only
}
