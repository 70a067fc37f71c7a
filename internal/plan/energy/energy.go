// Package energy maps a timezone-local clock time to an expected energy level.
package energy

import (
	"time"

	"nextup/internal/model"
)

// DayPart is one of the four fixed day segments.
type DayPart string

const (
	Morning   DayPart = "morning" // 06:00-12:00
	Afternoon DayPart = "afternoon" // 12:00-17:00
	Evening   DayPart = "evening" // 17:00-21:00
	Night     DayPart = "night" // everything else
)

// BucketFor returns the day segment containing the given wall-clock hour.
func BucketFor(hour int) DayPart {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// Resolve looks up the expected energy level for the given instant in the
// given location. An explicit override always wins; a nil profile means
// medium everywhere.
func Resolve(now time.Time, loc *time.Location, profile *model.EnergyProfile, override model.EnergyLevel) model.EnergyLevel {
	if override != "" {
		return override
	}
	if profile == nil {
		return model.EnergyMedium
	}

	var lvl model.EnergyLevel
	switch BucketFor(now.In(loc).Hour()) {
	case Morning:
		lvl = profile.Morning
	case Afternoon:
		lvl = profile.Afternoon
	case Evening:
		lvl = profile.Evening
	default:
		lvl = profile.Night
	}
	if lvl == "" {
		return model.EnergyMedium
	}
	return lvl
}
