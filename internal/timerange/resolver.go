// Package timerange maps symbolic range tags onto concrete time windows
// and a suggested vendor sampling cycle.
package timerange

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned for an unrecognized range tag.
var ErrInvalidRange = errors.New("invalid range type")

// RangeType is a symbolic shorthand for a time window anchored to "now".
type RangeType string

const (
	OneHour     RangeType = "one_hour"
	OneDay      RangeType = "one_day"
	OneWeek     RangeType = "one_week"
	OneMonth    RangeType = "one_month"
	ThreeMonths RangeType = "three_months"
)

// Cycle is the vendor sampling granularity, ordered finest to coarsest.
type Cycle string

const (
	Cycle5Min  Cycle = "5min"
	Cycle30Min Cycle = "30min"
	Cycle4Hour Cycle = "4hour"
	Cycle1Day  Cycle = "1day"
)

// Cycles lists every granularity the resolver can suggest, finest first.
var Cycles = []Cycle{Cycle5Min, Cycle30Min, Cycle4Hour, Cycle1Day}

// Window is a resolved absolute time range.
type Window struct {
	Start       time.Time
	End         time.Time
	Description string
	Cycle       Cycle
}

// Resolve maps a range tag to a window anchored at now. Short ranges get
// fine-grained sampling, long ranges get coarse sampling.
func Resolve(tag RangeType, now time.Time) (Window, error) {
	switch tag {
	case OneHour:
		return Window{Start: now.Add(-time.Hour), End: now, Description: "Last hour", Cycle: Cycle5Min}, nil
	case OneDay:
		return Window{Start: now.AddDate(0, 0, -1), End: now, Description: "Last 24 hours", Cycle: Cycle5Min}, nil
	case OneWeek:
		return Window{Start: now.AddDate(0, 0, -7), End: now, Description: "Last 7 days", Cycle: Cycle30Min}, nil
	case OneMonth:
		return Window{Start: now.AddDate(0, -1, 0), End: now, Description: "Last 30 days", Cycle: Cycle4Hour}, nil
	case ThreeMonths:
		return Window{Start: now.AddDate(0, -3, 0), End: now, Description: "Last 3 months", Cycle: Cycle1Day}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidRange, tag)
	}
}
