// Package navigator tracks which report section is active.
//
// Sections are a fixed catalog of ten entries identified by 1..10. The
// navigator starts on section 1, has no terminal state, and ignores
// requests for ids outside the catalog.
package navigator

import (
	"errors"
	"fmt"
	"sync"
)

// SectionID identifies a report section.
type SectionID int

const (
	FinancialOverview SectionID = iota + 1
	NewsAnalysis
	RealTimeNews
	EarningsCall
	CompetitiveAnalysis
	RevenueAnalysis
	Profitability
	FinancialHealth
	RiskAssessment
	ForwardOutlook
)

// ErrUnknownSection is returned for ids outside the catalog.
var ErrUnknownSection = errors.New("unknown section")

// Section is one catalog entry. Icon is a presentation-neutral name.
type Section struct {
	ID    SectionID `json:"id"`
	Title string    `json:"title"`
	Icon  string    `json:"icon"`
}

var catalog = [...]Section{
	{FinancialOverview, "Financial Overview", "dollar-sign"},
	{NewsAnalysis, "News Analysis", "alert-triangle"},
	{RealTimeNews, "Real-Time News", "clock"},
	{EarningsCall, "Earnings Call", "trending-up"},
	{CompetitiveAnalysis, "Competitive Analysis", "target"},
	{RevenueAnalysis, "Revenue Analysis", "trending-up"},
	{Profitability, "Profitability", "dollar-sign"},
	{FinancialHealth, "Financial Health", "shield"},
	{RiskAssessment, "Risk Assessment", "alert-triangle"},
	{ForwardOutlook, "Forward Outlook", "eye"},
}

// Total is the number of sections in the catalog.
const Total = len(catalog)

// Catalog returns a copy of the ordered section catalog.
func Catalog() []Section {
	out := make([]Section, Total)
	copy(out, catalog[:])
	return out
}

// Valid reports whether id names a catalog entry.
func (id SectionID) Valid() bool {
	return id >= 1 && int(id) <= Total
}

// Lookup returns the catalog entry for id.
func Lookup(id SectionID) (Section, error) {
	if !id.Valid() {
		return Section{}, fmt.Errorf("%w: %d", ErrUnknownSection, id)
	}
	return catalog[id-1], nil
}

// String returns the section title, or a placeholder for unknown ids.
func (id SectionID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("Section(%d)", int(id))
	}
	return catalog[id-1].Title
}

// Navigator holds the active section. It is safe for concurrent use.
type Navigator struct {
	mu       sync.RWMutex
	active   SectionID
	onChange func(Section)
}

// New returns a navigator positioned on the first section.
func New() *Navigator {
	return &Navigator{active: FinancialOverview}
}

// OnChange registers fn to be called after every successful change of the
// active section. fn runs outside the navigator lock.
func (n *Navigator) OnChange(fn func(Section)) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

// Select makes id the active section. An unknown id leaves the state
// unchanged and returns ErrUnknownSection.
func (n *Navigator) Select(id SectionID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSection, id)
	}
	n.move(func(SectionID) SectionID { return id })
	return nil
}

// Next advances to the following section, wrapping from the last to the first.
func (n *Navigator) Next() Section {
	return n.move(func(cur SectionID) SectionID {
		return cur%SectionID(Total) + 1
	})
}

// Prev moves to the preceding section, wrapping from the first to the last.
func (n *Navigator) Prev() Section {
	return n.move(func(cur SectionID) SectionID {
		return (cur+SectionID(Total)-2)%SectionID(Total) + 1
	})
}

// Reset returns to the first section.
func (n *Navigator) Reset() Section {
	return n.move(func(SectionID) SectionID { return FinancialOverview })
}

// Active returns the active section id.
func (n *Navigator) Active() SectionID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// Current returns the active catalog entry.
func (n *Navigator) Current() Section {
	return catalog[n.Active()-1]
}

// Progress returns the active position as a fraction of the catalog,
// e.g. 0.3 on section 3 of 10.
func (n *Navigator) Progress() float64 {
	return Progress(n.Active())
}

// Progress returns id's position as a fraction of the catalog.
func Progress(id SectionID) float64 {
	return float64(id) / float64(Total)
}

func (n *Navigator) move(next func(SectionID) SectionID) Section {
	n.mu.Lock()
	n.active = next(n.active)
	s := catalog[n.active-1]
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn(s)
	}
	return s
}
