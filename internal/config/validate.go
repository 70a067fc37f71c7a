package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks cross-field invariants. Call after Normalize; errors carry
// the config path of the offending field.
func Validate(c *Config) error {
	p := c.Planner
	if p.WakeHour < 0 || p.WakeHour > 23 {
		return fmt.Errorf("planner.wake_hour: must be 0..23, got %d", p.WakeHour)
	}
	if p.SleepHour < 0 || p.SleepHour > 23 {
		return fmt.Errorf("planner.sleep_hour: must be 0..23, got %d", p.SleepHour)
	}
	if p.WakeHour >= p.SleepHour {
		return fmt.Errorf("planner.wake_hour: must be before sleep_hour (%d >= %d)", p.WakeHour, p.SleepHour)
	}
	if p.HorizonDays < 1 || p.HorizonDays > 60 {
		return fmt.Errorf("planner.horizon_days: must be 1..60, got %d", p.HorizonDays)
	}
	if tz := strings.TrimSpace(p.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("planner.timezone: %w", err)
		}
	}

	if c.EnergyProfile != nil {
		buckets := map[string]string{
			"morning":   c.EnergyProfile.Morning,
			"afternoon": c.EnergyProfile.Afternoon,
			"evening":   c.EnergyProfile.Evening,
			"night":     c.EnergyProfile.Night,
		}
		for name, lvl := range buckets {
			switch lvl {
			case "low", "medium", "high":
			default:
				return fmt.Errorf("energy_profile.%s: must be low|medium|high, got %q", name, lvl)
			}
		}
	}

	for i, l := range c.Locations {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("locations[%d].name: required", i)
		}
		if l.Latitude < -90 || l.Latitude > 90 {
			return fmt.Errorf("locations[%d].latitude: must be -90..90, got %v", i, l.Latitude)
		}
		if l.Longitude < -180 || l.Longitude > 180 {
			return fmt.Errorf("locations[%d].longitude: must be -180..180, got %v", i, l.Longitude)
		}
		if l.RadiusMeters < 0 {
			return fmt.Errorf("locations[%d].radius_meters: must be > 0 when set", i)
		}
	}

	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("proposer.timeout", c.Proposer.Timeout); err != nil {
		return err
	}
	if c.Proposer.RetryMax < 0 {
		return fmt.Errorf("proposer.retry_max: must be >= 0, got %d", c.Proposer.RetryMax)
	}
	if c.Proposer.RatePerSec < 0 {
		return fmt.Errorf("proposer.rate_per_sec: must be >= 0, got %d", c.Proposer.RatePerSec)
	}
	if c.Replan.Enabled && strings.TrimSpace(c.Replan.Schedule) == "" {
		return fmt.Errorf("replan.schedule: required when replan is enabled")
	}
	return nil
}
