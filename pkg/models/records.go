package models

import "time"

// RecordSet is everything loaded for one selected company. Optional parts
// are nil or empty when their collaborator had nothing to offer.
type RecordSet struct {
	Company      Company           `json:"company"`
	News         []NewsItem        `json:"news,omitempty"`
	EarningsCall *EarningsCall     `json:"earnings_call,omitempty"`
	Metrics      *FinancialMetrics `json:"metrics,omitempty"`
	Competitors  []CompetitorData  `json:"competitors,omitempty"`
	Chart        []ChartPoint      `json:"chart,omitempty"`
	LoadedAt     time.Time         `json:"loaded_at"`
	Partial      []string          `json:"partial,omitempty"` // collaborators that failed
}

// IsPartial reports whether any collaborator failed during the load.
func (r RecordSet) IsPartial() bool {
	return len(r.Partial) > 0
}
