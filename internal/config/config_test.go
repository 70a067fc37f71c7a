package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
logging: { level: debug, console: true }
storage: { driver: file, path: ./store }
planner:
  timezone: "UTC"
  wake_hour: 8
  sleep_hour: 23
energy_profile: { morning: high, afternoon: medium, evening: medium, night: low }
locations:
  - { name: Home, latitude: 40.7, longitude: -74.0, radius_meters: 150 }
proposer: { endpoint: "http://127.0.0.1:8091/propose", timeout: 5s }
replan: { enabled: true }
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Planner.WakeHour != 8 || cfg.Planner.SleepHour != 23 {
		t.Fatalf("planner window = %d..%d", cfg.Planner.WakeHour, cfg.Planner.SleepHour)
	}
	if cfg.Planner.HorizonDays != DefaultHorizonDays {
		t.Fatalf("horizon = %d, want default %d", cfg.Planner.HorizonDays, DefaultHorizonDays)
	}
	if cfg.Replan.Schedule != DefaultReplanSchedule {
		t.Fatalf("replan schedule = %q, want default", cfg.Replan.Schedule)
	}
	if p := cfg.Profile(); p == nil || p.Morning != "high" {
		t.Fatalf("profile = %+v", p)
	}
	if locs := cfg.SavedLocations(); len(locs) != 1 || locs[0].Name != "Home" {
		t.Fatalf("locations = %+v", locs)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"planner": {"wak_hour": 8}}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestMinBlockClampedToFloor(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"planner": {"min_block_minutes": 5}}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Planner.MinBlockMinutes != DefaultMinBlockMin {
		t.Fatalf("min_block_minutes = %d, want clamped to %d", cfg.Planner.MinBlockMinutes, DefaultMinBlockMin)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "wake after sleep",
			mutate: func(c *Config) { c.Planner.WakeHour = 22; c.Planner.SleepHour = 7 },
			want:   "planner.wake_hour",
		},
		{
			name:   "horizon out of range",
			mutate: func(c *Config) { c.Planner.HorizonDays = 90 },
			want:   "planner.horizon_days",
		},
		{
			name:   "bad timezone",
			mutate: func(c *Config) { c.Planner.Timezone = "Mars/Olympus" },
			want:   "planner.timezone",
		},
		{
			name: "bad energy level",
			mutate: func(c *Config) {
				c.EnergyProfile = &EnergyProfileConfig{Morning: "turbo", Afternoon: "medium", Evening: "medium", Night: "low"}
			},
			want: "energy_profile.morning",
		},
		{
			name: "latitude out of range",
			mutate: func(c *Config) {
				c.Locations = []LocationConfig{{Name: "X", Latitude: 95}}
			},
			want: "locations[0].latitude",
		},
		{
			name:   "bad proposer timeout",
			mutate: func(c *Config) { c.Proposer.Timeout = "soon" },
			want:   "proposer.timeout",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var cfg Config
			cfg.Normalize()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not name %q", err, tt.want)
			}
		})
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"logging": {"level": "info"}} {"extra": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}
