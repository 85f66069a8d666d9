package models

import (
	"fmt"
	"strings"
	"time"
)

// EarningsCall summarizes the latest earnings call.
type EarningsCall struct {
	Quarter           string     `json:"quarter" yaml:"quarter"` // e.g., "Q3"
	Year              int        `json:"year" yaml:"year"`
	Date              time.Time  `json:"date" yaml:"date"`
	NextCallDate      *time.Time `json:"next_call_date,omitempty" yaml:"next_call_date,omitempty"`
	KeyQuotes         []string   `json:"key_quotes" yaml:"key_quotes"`
	AnalystHighlights []string   `json:"analyst_highlights" yaml:"analyst_highlights"`
}

// MarginTrend is the direction margins are moving.
type MarginTrend string

const (
	TrendImproving MarginTrend = "improving"
	TrendDeclining MarginTrend = "declining"
	TrendStable    MarginTrend = "stable"
)

// Rating grades the balance sheet.
type Rating string

const (
	RatingStrong   Rating = "strong"
	RatingModerate Rating = "moderate"
	RatingWeak     Rating = "weak"
)

// Severity grades a single risk.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// QuarterRevenue is one bar of the quarterly revenue history.
type QuarterRevenue struct {
	Quarter string  `json:"quarter" yaml:"quarter"`
	Revenue float64 `json:"revenue" yaml:"revenue"` // in billions
}

// Revenue holds top-line figures.
type Revenue struct {
	Current  float64          `json:"current" yaml:"current"` // annual, in billions
	Growth   float64          `json:"growth" yaml:"growth"`   // YoY percent
	Quarters []QuarterRevenue `json:"quarters" yaml:"quarters"`
}

// Profitability holds margin figures.
type Profitability struct {
	GrossMargin     float64     `json:"gross_margin" yaml:"gross_margin"`
	OperatingMargin float64     `json:"operating_margin" yaml:"operating_margin"`
	NetMargin       float64     `json:"net_margin" yaml:"net_margin"`
	Trend           MarginTrend `json:"trend" yaml:"trend"`
}

// FinancialHealth holds balance-sheet figures.
type FinancialHealth struct {
	CashFlow     float64 `json:"cash_flow" yaml:"cash_flow"` // operating, in billions
	CurrentRatio float64 `json:"current_ratio" yaml:"current_ratio"`
	Rating       Rating  `json:"rating" yaml:"rating"`
	Debt         float64 `json:"debt" yaml:"debt"` // in billions
	DebtToEquity float64 `json:"debt_to_equity" yaml:"debt_to_equity"`
}

// Risk is one entry of the risk register.
type Risk struct {
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Severity    Severity `json:"severity" yaml:"severity"`
}

// Outlook is management guidance and street expectations.
type Outlook struct {
	Guidance           string   `json:"guidance" yaml:"guidance"`
	MarketExpectations string   `json:"market_expectations" yaml:"market_expectations"`
	KeyDrivers         []string `json:"key_drivers" yaml:"key_drivers"`
}

// FinancialMetrics bundles the pre-computed figures for sections 6 to 10.
type FinancialMetrics struct {
	Revenue         Revenue         `json:"revenue" yaml:"revenue"`
	Profitability   Profitability   `json:"profitability" yaml:"profitability"`
	FinancialHealth FinancialHealth `json:"financial_health" yaml:"financial_health"`
	Risks           []Risk          `json:"risks" yaml:"risks"`
	Outlook         Outlook         `json:"outlook" yaml:"outlook"`
}

// Validate checks the enum fields of the metrics.
func (m FinancialMetrics) Validate() error {
	switch m.Profitability.Trend {
	case TrendImproving, TrendDeclining, TrendStable:
	default:
		return fmt.Errorf("%w: unknown margin trend %q", ErrInvalidRecord, m.Profitability.Trend)
	}
	switch m.FinancialHealth.Rating {
	case RatingStrong, RatingModerate, RatingWeak:
	default:
		return fmt.Errorf("%w: unknown rating %q", ErrInvalidRecord, m.FinancialHealth.Rating)
	}
	for _, r := range m.Risks {
		switch r.Severity {
		case SeverityLow, SeverityMedium, SeverityHigh:
		default:
			return fmt.Errorf("%w: risk %q has unknown severity %q", ErrInvalidRecord, r.Category, r.Severity)
		}
	}
	return nil
}

// ShareTrend is the direction of a competitor's market share.
type ShareTrend string

const (
	ShareUp   ShareTrend = "up"
	ShareDown ShareTrend = "down"
	ShareFlat ShareTrend = "flat"
)

// ParseShareTrend normalizes and validates a share trend label.
func ParseShareTrend(v string) (ShareTrend, error) {
	t := ShareTrend(strings.ToLower(strings.TrimSpace(v)))
	switch t {
	case ShareUp, ShareDown, ShareFlat:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown share trend %q", ErrInvalidRecord, v)
}

// CompetitorData is one row of the competitive landscape.
type CompetitorData struct {
	Name        string     `json:"name" yaml:"name"`
	MarketShare float64    `json:"market_share" yaml:"market_share"` // 0-100
	Trend       ShareTrend `json:"trend" yaml:"trend"`
}

// ChartPoint is one sample of the intraday price chart.
type ChartPoint struct {
	Time   string  `json:"time" yaml:"time"` // e.g., "09:30"
	Price  float64 `json:"price" yaml:"price"`
	Volume int64   `json:"volume,omitempty" yaml:"volume,omitempty"`
}
