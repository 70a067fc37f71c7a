package config

import (
	"time"

	"nextup/internal/model"
)

// Config is the full on-disk configuration. The file may be JSON or YAML;
// either way it is decoded strictly (unknown fields are rejected).
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Planner  PlannerConfig  `json:"planner"`
	Proposer ProposerConfig `json:"proposer"`
	Replan   ReplanConfig   `json:"replan"`

	// EnergyProfile maps the four day segments to expected energy.
	// Omitted means "medium everywhere".
	EnergyProfile *EnergyProfileConfig `json:"energy_profile,omitempty"`

	// Locations are the user's saved geofences.
	Locations []LocationConfig `json:"locations,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig selects the persistence driver.
//
// Driver values:
//   - "sqlite": SQLite database file
//   - "file": dependency-free JSONL backend
//   - "" or "none": storage disabled (planner requires one, so the daemon
//     refuses to start; useful only for library consumers)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PlannerConfig bounds free-time discovery and context assembly.
//
// WakeHour/SleepHour are integer hours 0-23 with wake < sleep.
// MinBlockMinutes below 20 is clamped up to 20 (shorter gaps are not
// actionable).
type PlannerConfig struct {
	Timezone        string `json:"timezone,omitempty"` // IANA TZ, e.g. "America/New_York"
	HorizonDays     int    `json:"horizon_days,omitempty"`
	WakeHour        int    `json:"wake_hour,omitempty"`
	SleepHour       int    `json:"sleep_hour,omitempty"`
	MinBlockMinutes int    `json:"min_block_minutes,omitempty"`
}

// ProposerConfig points at the external reasoning service.
//
// Timeout and durations are Go duration strings.
type ProposerConfig struct {
	Endpoint   string `json:"endpoint"`
	Timeout    string `json:"timeout,omitempty"`
	RetryMax   int    `json:"retry_max,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// ReplanConfig controls the periodic planning pass.
//
// Schedule is a robfig/cron spec ("@every 30m", "0 7 * * *").
type ReplanConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
}

type EnergyProfileConfig struct {
	Morning   string `json:"morning"`
	Afternoon string `json:"afternoon"`
	Evening   string `json:"evening"`
	Night     string `json:"night"`
}

type LocationConfig struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
}

// Defaults applied by Normalize.
const (
	DefaultHorizonDays    = 7
	DefaultWakeHour       = 7
	DefaultSleepHour      = 22
	DefaultMinBlockMin    = 20
	DefaultReplanSchedule = "@every 30m"

	DefaultProposerTimeout = 10 * time.Second
	DefaultProposerRetries = 2
)

// Normalize fills zero-valued fields with defaults. It does not validate;
// call Validate afterwards.
func (c *Config) Normalize() {
	if c.Planner.HorizonDays == 0 {
		c.Planner.HorizonDays = DefaultHorizonDays
	}
	if c.Planner.WakeHour == 0 && c.Planner.SleepHour == 0 {
		c.Planner.WakeHour = DefaultWakeHour
		c.Planner.SleepHour = DefaultSleepHour
	}
	if c.Planner.MinBlockMinutes < DefaultMinBlockMin {
		c.Planner.MinBlockMinutes = DefaultMinBlockMin
	}
	if c.Replan.Schedule == "" {
		c.Replan.Schedule = DefaultReplanSchedule
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Profile converts the config section to the domain profile.
// Unknown level strings degrade to medium rather than failing the load;
// Validate reports them.
func (c *Config) Profile() *model.EnergyProfile {
	if c.EnergyProfile == nil {
		return nil
	}
	return &model.EnergyProfile{
		Morning:   energyLevel(c.EnergyProfile.Morning),
		Afternoon: energyLevel(c.EnergyProfile.Afternoon),
		Evening:   energyLevel(c.EnergyProfile.Evening),
		Night:     energyLevel(c.EnergyProfile.Night),
	}
}

// SavedLocations converts the config section to domain geofences.
func (c *Config) SavedLocations() []model.SavedLocation {
	if len(c.Locations) == 0 {
		return nil
	}
	out := make([]model.SavedLocation, 0, len(c.Locations))
	for _, l := range c.Locations {
		out = append(out, model.SavedLocation{
			Name:         l.Name,
			Latitude:     l.Latitude,
			Longitude:    l.Longitude,
			RadiusMeters: l.RadiusMeters,
		})
	}
	return out
}

func energyLevel(s string) model.EnergyLevel {
	switch model.EnergyLevel(s) {
	case model.EnergyLow, model.EnergyMedium, model.EnergyHigh:
		return model.EnergyLevel(s)
	default:
		return model.EnergyMedium
	}
}
