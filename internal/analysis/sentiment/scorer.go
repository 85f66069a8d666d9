package sentiment

import (
	"math"
	"strings"
	"time"

	"github.com/seenimoa/onepager/pkg/models"
)

// ------------------------------------------------------------------
// Keyword-based sentiment scorer (offline, deterministic).
// Curated providers label their items; feeds such as RSS do not, and
// those items are labelled here before they reach the classifier.
// ------------------------------------------------------------------

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "raises guidance": 0.7, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5, "partnership": 0.3,
	"approval": 0.5, "launch": 0.3,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5,
	"default": 0.7, "fraud": 0.8, "lawsuit": 0.6, "investigation": 0.5,
	"probe": 0.5, "antitrust": 0.6, "recall": 0.5, "layoffs": 0.5,
	"miss": 0.5, "warning": 0.5, "concern": 0.3, "cuts guidance": 0.7,
}

// ScoreHeadline returns a sentiment score for a single headline.
// Score ranges from -1.0 (very bearish) to +1.0 (very bullish).
func ScoreHeadline(headline string) (score float64, confidence float64) {
	lower := strings.ToLower(headline)

	bullScore := 0.0
	bearScore := 0.0
	matches := 0

	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bullScore += weight
			matches++
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bearScore += weight
			matches++
		}
	}

	total := bullScore + bearScore
	if matches == 0 || total == 0 {
		return 0, 0.1 // no signal
	}

	// Net score normalized to -1..+1.
	score = (bullScore - bearScore) / total

	// Confidence based on number of keyword matches.
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)

	return score, confidence
}

// DefaultCategory is assigned to inferred neutral items.
const DefaultCategory = "Market"

// Infer labels an unlabelled item from its title and summary. Items with
// an existing valid sentiment are returned unchanged.
func Infer(item models.NewsItem) models.NewsItem {
	if item.Sentiment.Valid() {
		return item
	}
	text := item.Title
	if item.Summary != "" {
		text += " " + item.Summary
	}
	score, confidence := ScoreHeadline(text)

	switch {
	case score > 0.2:
		item.Sentiment = models.SentimentPositive
	case score < -0.2:
		item.Sentiment = models.SentimentNegative
	default:
		item.Sentiment = models.SentimentNeutral
		item.Impact = ""
		if item.Category == "" {
			item.Category = DefaultCategory
		}
		return item
	}
	item.Impact = impactOf(math.Abs(score) * confidence)
	return item
}

func impactOf(strength float64) models.Impact {
	switch {
	case strength >= 0.5:
		return models.ImpactHigh
	case strength >= 0.3:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}

// Summary is the time-decayed net tone of a news list.
type Summary struct {
	Score    float64 `json:"score"` // -1..+1
	Label    string  `json:"label"`
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Neutral  int     `json:"neutral"`
}

var impactWeight = map[models.Impact]float64{
	models.ImpactLow:    0.3,
	models.ImpactMedium: 0.6,
	models.ImpactHigh:   1.0,
}

// Summarize computes a time-weighted net tone from labelled items. Weight
// halves every 24 hours of age relative to now and scales with impact.
func Summarize(news []models.NewsItem, now time.Time) Summary {
	b := Classify(news)
	s := Summary{
		Label:    "Neutral",
		Positive: len(b.Positive),
		Negative: len(b.Negative),
		Neutral:  len(b.Neutral),
	}
	if len(news) == 0 {
		return s
	}

	weightedSum := 0.0
	totalWeight := 0.0
	for _, item := range news {
		age := now.Sub(item.PublishedAt).Hours()
		if age < 0 {
			age = 0
		}
		timeWeight := math.Exp(-0.693 * age / 24) // ln(2) * t/24

		polarity := 0.0
		w := impactWeight[models.ImpactLow]
		switch item.Sentiment {
		case models.SentimentPositive:
			polarity = 1
		case models.SentimentNegative:
			polarity = -1
		}
		if iw, ok := impactWeight[item.Impact]; ok && polarity != 0 {
			w = iw
		}
		weightedSum += polarity * w * timeWeight
		totalWeight += w * timeWeight
	}
	if totalWeight > 0 {
		s.Score = weightedSum / totalWeight
	}

	switch {
	case s.Score > 0.3:
		s.Label = "Bullish"
	case s.Score > 0.1:
		s.Label = "Slightly Bullish"
	case s.Score < -0.3:
		s.Label = "Bearish"
	case s.Score < -0.1:
		s.Label = "Slightly Bearish"
	}
	return s
}
