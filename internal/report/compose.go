// Package report turns a company's record set into presentation-neutral
// section payloads and renders full one-pager exports.
//
// Each of the ten navigator sections maps to one composition function.
// Composition is pure: it only reads the record set and only applies
// sign and label checks to pre-computed figures.
package report

import (
	"fmt"
	"time"

	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/pkg/models"
)

// ErrUnknownSection is returned for ids outside the section catalog.
var ErrUnknownSection = navigator.ErrUnknownSection

// Kind tags which body type a payload carries.
type Kind string

const (
	KindOverview      Kind = "overview"
	KindNewsAnalysis  Kind = "news_analysis"
	KindNewsFeed      Kind = "news_feed"
	KindEarnings      Kind = "earnings"
	KindCompetitive   Kind = "competitive"
	KindRevenue       Kind = "revenue"
	KindProfitability Kind = "profitability"
	KindHealth        Kind = "financial_health"
	KindRisk          Kind = "risk"
	KindOutlook       Kind = "outlook"
)

// Tone is the display polarity of a figure or label.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneCaution  Tone = "caution"
	ToneNeutral  Tone = "neutral"
)

// Payload is one composed section. Body holds the Kind-specific struct and
// is nil when the backing record was missing.
type Payload struct {
	SectionID navigator.SectionID `json:"section_id"`
	Title     string              `json:"title"`
	Icon      string              `json:"icon"`
	Kind      Kind                `json:"kind"`
	Progress  float64             `json:"progress"`
	Empty     bool                `json:"empty"`
	Body      any                 `json:"body,omitempty"`
}

type composeFunc func(rs *models.RecordSet) (body any, empty bool)

type composer struct {
	kind    Kind
	compose composeFunc
}

var composers = map[navigator.SectionID]composer{
	navigator.FinancialOverview:   {KindOverview, composeOverview},
	navigator.NewsAnalysis:        {KindNewsAnalysis, composeNewsAnalysis},
	navigator.RealTimeNews:        {KindNewsFeed, composeNewsFeed},
	navigator.EarningsCall:        {KindEarnings, composeEarnings},
	navigator.CompetitiveAnalysis: {KindCompetitive, composeCompetitive},
	navigator.RevenueAnalysis:     {KindRevenue, composeRevenue},
	navigator.Profitability:       {KindProfitability, composeProfitability},
	navigator.FinancialHealth:     {KindHealth, composeHealth},
	navigator.RiskAssessment:      {KindRisk, composeRisk},
	navigator.ForwardOutlook:      {KindOutlook, composeOutlook},
}

// Compose builds the payload for section id from the record set.
func Compose(id navigator.SectionID, rs models.RecordSet) (Payload, error) {
	section, err := navigator.Lookup(id)
	if err != nil {
		return Payload{}, err
	}
	c, ok := composers[id]
	if !ok {
		return Payload{}, fmt.Errorf("%w: %d has no composer", ErrUnknownSection, id)
	}
	body, empty := c.compose(&rs)
	return Payload{
		SectionID: section.ID,
		Title:     section.Title,
		Icon:      section.Icon,
		Kind:      c.kind,
		Progress:  navigator.Progress(section.ID),
		Empty:     empty,
		Body:      body,
	}, nil
}

// ComposeAll builds every section in catalog order.
func ComposeAll(rs models.RecordSet) []Payload {
	sections := navigator.Catalog()
	out := make([]Payload, 0, len(sections))
	for _, s := range sections {
		p, err := Compose(s.ID, rs)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// referenceTime is the instant relative weighting is computed against.
// It prefers the load time so composition stays deterministic.
func referenceTime(rs *models.RecordSet) time.Time {
	if !rs.LoadedAt.IsZero() {
		return rs.LoadedAt
	}
	var latest time.Time
	for _, n := range rs.News {
		if n.PublishedAt.After(latest) {
			latest = n.PublishedAt
		}
	}
	return latest
}
