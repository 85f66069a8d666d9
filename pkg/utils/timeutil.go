package utils

import (
	"time"
)

// Eastern is the US exchange time zone.
var Eastern *time.Location

func init() {
	var err error
	Eastern, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST offset if tz database is not available
		Eastern = time.FixedZone("EST", -5*60*60)
	}
}

// MarketOpenTime returns the regular session open (9:30 AM ET) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(Eastern)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, Eastern)
}

// MarketCloseTime returns the regular session close (4:00 PM ET) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(Eastern)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, Eastern)
}

// IsMarketOpenAt reports whether the regular session is open at t.
// Exchange holidays are not modelled.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(Eastern)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !t.Before(MarketOpenTime(t)) && t.Before(MarketCloseTime(t))
}

// MarketStatus returns a short market status label for t.
func MarketStatus(t time.Time) string {
	t = t.In(Eastern)
	switch {
	case t.Weekday() == time.Saturday || t.Weekday() == time.Sunday:
		return "CLOSED (Weekend)"
	case t.Before(MarketOpenTime(t)):
		return "PRE-MARKET"
	case t.Before(MarketCloseTime(t)):
		return "OPEN"
	default:
		return "AFTER-HOURS"
	}
}

// FormatDate formats a calendar date for report display ("Jan 25, 2024").
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatTimestamp formats a publication time for report display in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}
