package report

import (
	"strconv"
	"time"

	"github.com/seenimoa/onepager/internal/analysis/sentiment"
	"github.com/seenimoa/onepager/pkg/models"
	"github.com/seenimoa/onepager/pkg/utils"
)

// Metric is a labelled, pre-formatted figure.
type Metric struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Caption string `json:"caption,omitempty"`
}

// ════════════════════════════════════════════════════════════════════
// 1. Financial Overview
// ════════════════════════════════════════════════════════════════════

// OverviewBody is the headline quote, key figures and intraday chart.
type OverviewBody struct {
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	Price         string              `json:"price"`
	Change        string              `json:"change"`
	ChangePercent string              `json:"change_percent"`
	Direction     models.Direction    `json:"direction"`
	Tone          Tone                `json:"tone"`
	Metrics       []Metric            `json:"metrics"`
	Chart         []models.ChartPoint `json:"chart,omitempty"`
}

func composeOverview(rs *models.RecordSet) (any, bool) {
	c := rs.Company
	if c.Symbol == "" {
		return nil, true
	}
	return &OverviewBody{
		Symbol:        c.Symbol,
		Name:          c.Name,
		Price:         utils.FormatPrice(c.Price),
		Change:        utils.FormatChange(c.Change),
		ChangePercent: utils.FormatChangePercent(c.Change, c.ChangePercent),
		Direction:     c.Direction(),
		Tone:          directionTone(c.Direction()),
		Metrics: []Metric{
			{Label: "Market Cap", Value: c.MarketCap},
			{Label: "P/E Ratio", Value: utils.FormatRatio(c.PERatio)},
			{Label: "Revenue", Value: c.Revenue},
			{Label: "Profit Margin", Value: utils.FormatPct(c.ProfitMargin)},
		},
		Chart: rs.Chart,
	}, false
}

// ════════════════════════════════════════════════════════════════════
// 2. News Analysis / 3. Real-Time News
// ════════════════════════════════════════════════════════════════════

// NewsItemView is a display row for one news item. Badge carries the
// impact for positive/negative items and the category for neutral ones.
type NewsItemView struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Summary     string           `json:"summary"`
	Source      string           `json:"source"`
	URL         string           `json:"url,omitempty"`
	PublishedAt time.Time        `json:"published_at"`
	Published   string           `json:"published"`
	Sentiment   models.Sentiment `json:"sentiment"`
	Tone        Tone             `json:"tone"`
	Badge       string           `json:"badge"`
	BadgeTone   Tone             `json:"badge_tone"`
}

// NewsGroupView is one non-empty sentiment bucket.
type NewsGroupView struct {
	Sentiment models.Sentiment `json:"sentiment"`
	Title     string           `json:"title"`
	Tone      Tone             `json:"tone"`
	Items     []NewsItemView   `json:"items"`
}

// NewsAnalysisBody groups news by sentiment.
type NewsAnalysisBody struct {
	Groups  []NewsGroupView   `json:"groups"`
	Summary sentiment.Summary `json:"summary"`
}

// NewsFeedBody is the full feed, newest first.
type NewsFeedBody struct {
	Items []NewsItemView `json:"items"`
}

func composeNewsAnalysis(rs *models.RecordSet) (any, bool) {
	buckets := sentiment.Classify(rs.News)
	groups := buckets.Groups()
	body := &NewsAnalysisBody{
		Groups:  make([]NewsGroupView, 0, len(groups)),
		Summary: sentiment.Summarize(rs.News, referenceTime(rs)),
	}
	for _, g := range groups {
		gv := NewsGroupView{
			Sentiment: g.Sentiment,
			Title:     g.Title,
			Tone:      sentimentTone(g.Sentiment),
			Items:     make([]NewsItemView, len(g.Items)),
		}
		for i, item := range g.Items {
			gv.Items[i] = newsView(item, g.Sentiment)
		}
		body.Groups = append(body.Groups, gv)
	}
	return body, len(rs.News) == 0
}

func composeNewsFeed(rs *models.RecordSet) (any, bool) {
	feed := sentiment.Feed(rs.News)
	body := &NewsFeedBody{Items: make([]NewsItemView, len(feed))}
	for i, item := range feed {
		body.Items[i] = newsView(item, bucketOf(item.Sentiment))
	}
	return body, len(feed) == 0
}

// bucketOf mirrors the classifier's fallback for unknown labels.
func bucketOf(s models.Sentiment) models.Sentiment {
	if s.Valid() {
		return s
	}
	return models.SentimentNeutral
}

func newsView(item models.NewsItem, bucket models.Sentiment) NewsItemView {
	v := NewsItemView{
		ID:          item.ID,
		Title:       item.Title,
		Summary:     item.Summary,
		Source:      item.Source,
		URL:         item.URL,
		PublishedAt: item.PublishedAt,
		Published:   utils.FormatTimestamp(item.PublishedAt),
		Sentiment:   bucket,
		Tone:        sentimentTone(bucket),
	}
	switch bucket {
	case models.SentimentNeutral:
		v.Badge = item.Category
		v.BadgeTone = ToneNeutral
	default:
		v.Badge = string(item.Impact) + " impact"
		v.BadgeTone = impactTone(bucket, item.Impact)
	}
	return v
}

// ════════════════════════════════════════════════════════════════════
// 4. Earnings Call
// ════════════════════════════════════════════════════════════════════

// EarningsBody summarizes the latest call. NextCallDate is empty when the
// next call has not been scheduled.
type EarningsBody struct {
	Heading           string   `json:"heading"`
	CallDate          string   `json:"call_date"`
	NextCallDate      string   `json:"next_call_date,omitempty"`
	KeyQuotes         []string `json:"key_quotes"`
	AnalystHighlights []string `json:"analyst_highlights"`
}

func composeEarnings(rs *models.RecordSet) (any, bool) {
	ec := rs.EarningsCall
	if ec == nil {
		return nil, true
	}
	body := &EarningsBody{
		Heading:           ec.Quarter + " " + strconv.Itoa(ec.Year) + " Earnings Call",
		CallDate:          utils.FormatDate(ec.Date),
		KeyQuotes:         nonNil(ec.KeyQuotes),
		AnalystHighlights: nonNil(ec.AnalystHighlights),
	}
	if ec.NextCallDate != nil {
		body.NextCallDate = utils.FormatDate(*ec.NextCallDate)
	}
	return body, false
}

// ════════════════════════════════════════════════════════════════════
// 5. Competitive Analysis
// ════════════════════════════════════════════════════════════════════

// CompetitiveAdvantages is the standard advantages list shown with every
// competitive landscape.
var CompetitiveAdvantages = []string{
	"Strong brand recognition and customer loyalty",
	"Integrated ecosystem of products and services",
	"Significant R&D investment and innovation pipeline",
	"Premium positioning with strong pricing power",
}

// CompetitorRow is one market-position row.
type CompetitorRow struct {
	Name        string            `json:"name"`
	MarketShare float64           `json:"market_share"`
	Share       string            `json:"share"`
	Trend       models.ShareTrend `json:"trend"`
	Tone        Tone              `json:"tone"`
}

// CompetitiveBody is the market-position table and advantages.
type CompetitiveBody struct {
	Competitors []CompetitorRow `json:"competitors"`
	Advantages  []string        `json:"advantages"`
}

func composeCompetitive(rs *models.RecordSet) (any, bool) {
	body := &CompetitiveBody{
		Competitors: make([]CompetitorRow, len(rs.Competitors)),
		Advantages:  CompetitiveAdvantages,
	}
	for i, c := range rs.Competitors {
		body.Competitors[i] = CompetitorRow{
			Name:        c.Name,
			MarketShare: c.MarketShare,
			Share:       utils.FormatPct(c.MarketShare),
			Trend:       c.Trend,
			Tone:        shareTone(c.Trend),
		}
	}
	return body, len(rs.Competitors) == 0
}

// ════════════════════════════════════════════════════════════════════
// 6. Revenue Analysis
// ════════════════════════════════════════════════════════════════════

// GrowthDrivers is the standard growth drivers list of the revenue section.
var GrowthDrivers = []string{
	"AI and machine learning product integration",
	"Expansion into emerging markets",
	"Services revenue diversification",
	"Enterprise and B2B solutions growth",
}

// QuarterRow is one quarter of revenue history.
type QuarterRow struct {
	Quarter string  `json:"quarter"`
	Revenue string  `json:"revenue"`
	Value   float64 `json:"value"`
}

// RevenueBody is growth, current revenue and quarterly history.
type RevenueBody struct {
	Growth     string       `json:"growth"`
	GrowthTone Tone         `json:"growth_tone"`
	Current    string       `json:"current"`
	Quarters   []QuarterRow `json:"quarters"`
	Drivers    []string     `json:"drivers"`
}

func composeRevenue(rs *models.RecordSet) (any, bool) {
	if rs.Metrics == nil {
		return nil, true
	}
	r := rs.Metrics.Revenue
	body := &RevenueBody{
		Growth:     utils.FormatGrowth(r.Growth),
		GrowthTone: growthTone(r.Growth),
		Current:    utils.FormatBillions(r.Current),
		Quarters:   make([]QuarterRow, len(r.Quarters)),
		Drivers:    GrowthDrivers,
	}
	for i, q := range r.Quarters {
		body.Quarters[i] = QuarterRow{Quarter: q.Quarter, Revenue: utils.FormatBillions(q.Revenue), Value: q.Revenue}
	}
	return body, false
}

// ════════════════════════════════════════════════════════════════════
// 7. Profitability
// ════════════════════════════════════════════════════════════════════

// ProfitabilityBody is the margin set, trend and narrative.
type ProfitabilityBody struct {
	Margins   []Metric           `json:"margins"`
	Trend     models.MarginTrend `json:"trend"`
	Tone      Tone               `json:"tone"`
	Narrative string             `json:"narrative"`
}

var trendNarratives = map[models.MarginTrend]string{
	models.TrendImproving: "Margins are expanding due to operational efficiency and pricing power",
	models.TrendDeclining: "Margins under pressure from increased competition and costs",
	models.TrendStable:    "Margins remain stable with consistent operational performance",
}

func composeProfitability(rs *models.RecordSet) (any, bool) {
	if rs.Metrics == nil {
		return nil, true
	}
	p := rs.Metrics.Profitability
	narrative, ok := trendNarratives[p.Trend]
	if !ok {
		narrative = trendNarratives[models.TrendStable]
	}
	return &ProfitabilityBody{
		Margins: []Metric{
			{Label: "Gross Margin", Value: utils.FormatPct(p.GrossMargin)},
			{Label: "Operating Margin", Value: utils.FormatPct(p.OperatingMargin)},
			{Label: "Net Margin", Value: utils.FormatPct(p.NetMargin)},
		},
		Trend:     p.Trend,
		Tone:      marginTone(p.Trend),
		Narrative: narrative,
	}, false
}

// ════════════════════════════════════════════════════════════════════
// 8. Financial Health
// ════════════════════════════════════════════════════════════════════

// HealthBody is liquidity, leverage and the overall rating.
type HealthBody struct {
	CashFlow     Metric        `json:"cash_flow"`
	CurrentRatio Metric        `json:"current_ratio"`
	Rating       models.Rating `json:"rating"`
	Tone         Tone          `json:"tone"`
	Debt         Metric        `json:"debt"`
	DebtToEquity Metric        `json:"debt_to_equity"`
}

func composeHealth(rs *models.RecordSet) (any, bool) {
	if rs.Metrics == nil {
		return nil, true
	}
	h := rs.Metrics.FinancialHealth
	return &HealthBody{
		CashFlow:     Metric{Label: "Cash Flow", Value: utils.FormatBillions(h.CashFlow), Caption: "Operating Cash Flow"},
		CurrentRatio: Metric{Label: "Current Ratio", Value: utils.FormatRatio(h.CurrentRatio), Caption: "Liquidity measure"},
		Rating:       h.Rating,
		Tone:         ratingTone(h.Rating),
		Debt:         Metric{Label: "Total Debt", Value: utils.FormatBillions(h.Debt)},
		DebtToEquity: Metric{Label: "Debt-to-Equity", Value: utils.FormatRatio(h.DebtToEquity)},
	}, false
}

// ════════════════════════════════════════════════════════════════════
// 9. Risk Assessment
// ════════════════════════════════════════════════════════════════════

// RiskRow is one graded risk.
type RiskRow struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
	Tone        Tone            `json:"tone"`
}

// RiskBody is the risk register.
type RiskBody struct {
	Risks []RiskRow `json:"risks"`
}

func composeRisk(rs *models.RecordSet) (any, bool) {
	if rs.Metrics == nil {
		return nil, true
	}
	body := &RiskBody{Risks: make([]RiskRow, len(rs.Metrics.Risks))}
	for i, r := range rs.Metrics.Risks {
		body.Risks[i] = RiskRow{
			Category:    r.Category,
			Description: r.Description,
			Severity:    r.Severity,
			Tone:        severityTone(r.Severity),
		}
	}
	return body, len(body.Risks) == 0
}

// ════════════════════════════════════════════════════════════════════
// 10. Forward Outlook
// ════════════════════════════════════════════════════════════════════

// OutlookBody is guidance and expectations.
type OutlookBody struct {
	Guidance           string   `json:"guidance"`
	MarketExpectations string   `json:"market_expectations"`
	KeyDrivers         []string `json:"key_drivers"`
}

func composeOutlook(rs *models.RecordSet) (any, bool) {
	if rs.Metrics == nil {
		return nil, true
	}
	o := rs.Metrics.Outlook
	return &OutlookBody{
		Guidance:           o.Guidance,
		MarketExpectations: o.MarketExpectations,
		KeyDrivers:         nonNil(o.KeyDrivers),
	}, false
}

// ════════════════════════════════════════════════════════════════════
// Tone mapping
// ════════════════════════════════════════════════════════════════════

func directionTone(d models.Direction) Tone {
	if d == models.DirectionUp {
		return TonePositive
	}
	return ToneNegative
}

func growthTone(g float64) Tone {
	switch {
	case g > 0:
		return TonePositive
	case g < 0:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

func sentimentTone(s models.Sentiment) Tone {
	switch s {
	case models.SentimentPositive:
		return TonePositive
	case models.SentimentNegative:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// impactTone grades an impact badge. High impact takes the bucket's own
// tone; low impact reads as reassuring on bad news and muted on good news.
func impactTone(bucket models.Sentiment, impact models.Impact) Tone {
	switch impact {
	case models.ImpactHigh:
		return sentimentTone(bucket)
	case models.ImpactMedium:
		return ToneCaution
	}
	if bucket == models.SentimentNegative {
		return TonePositive
	}
	return ToneNeutral
}

func shareTone(t models.ShareTrend) Tone {
	switch t {
	case models.ShareUp:
		return TonePositive
	case models.ShareDown:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

func marginTone(t models.MarginTrend) Tone {
	switch t {
	case models.TrendImproving:
		return TonePositive
	case models.TrendDeclining:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

func ratingTone(r models.Rating) Tone {
	switch r {
	case models.RatingStrong:
		return TonePositive
	case models.RatingModerate:
		return ToneCaution
	default:
		return ToneNegative
	}
}

func severityTone(s models.Severity) Tone {
	switch s {
	case models.SeverityHigh:
		return ToneNegative
	case models.SeverityMedium:
		return ToneCaution
	default:
		return TonePositive
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
