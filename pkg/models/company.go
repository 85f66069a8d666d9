// Package models defines the records exchanged between the one-pager
// components. Records are immutable value snapshots supplied by data
// collaborators; the core never edits them in place.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord is wrapped by every Validate failure.
var ErrInvalidRecord = errors.New("invalid record")

// Company is one catalog entry and the header of a one-pager.
type Company struct {
	Symbol        string  `json:"symbol" yaml:"symbol"` // e.g., "AAPL"
	Name          string  `json:"name" yaml:"name"`     // e.g., "Apple Inc."
	Price         float64 `json:"price" yaml:"price"`
	Change        float64 `json:"change" yaml:"change"`                 // absolute move since prior close
	ChangePercent float64 `json:"change_percent" yaml:"change_percent"` // same sign as Change
	MarketCap     string  `json:"market_cap" yaml:"market_cap"`         // pre-formatted, e.g. "2.8T"
	PERatio       float64 `json:"pe_ratio" yaml:"pe_ratio"`
	Revenue       string  `json:"revenue" yaml:"revenue"` // pre-formatted, e.g. "383.3B"
	ProfitMargin  float64 `json:"profit_margin" yaml:"profit_margin"`
	Sector        string  `json:"sector,omitempty" yaml:"sector,omitempty"`
}

// Direction is the polarity of a price move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// DirectionOf returns up for a non-negative change.
func DirectionOf(change float64) Direction {
	if change >= 0 {
		return DirectionUp
	}
	return DirectionDown
}

// Direction reports whether the company moved up or down.
func (c Company) Direction() Direction {
	return DirectionOf(c.Change)
}

// Validate checks the catalog invariants: a non-empty uppercase symbol and
// a percent change whose sign agrees with the absolute change.
func (c Company) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("%w: company symbol is empty", ErrInvalidRecord)
	}
	if c.Symbol != strings.ToUpper(c.Symbol) {
		return fmt.Errorf("%w: company symbol %q is not uppercase", ErrInvalidRecord, c.Symbol)
	}
	if (c.Change >= 0) != (c.ChangePercent >= 0) {
		return fmt.Errorf("%w: %s change %.2f and change percent %.2f disagree in sign",
			ErrInvalidRecord, c.Symbol, c.Change, c.ChangePercent)
	}
	return nil
}

// User is the identity handed over by the auth collaborator.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
