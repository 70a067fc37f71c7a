// Package planner orchestrates a planning pass: gather ground truth, ask the
// external reasoner, arbitrate its proposal, persist what survives.
//
// The pure computations live under internal/plan; this package wires them
// to storage, the proposer, and the event bus.
package planner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nextup/internal/eventbus"
	"nextup/internal/model"
	"nextup/internal/plan/arbiter"
	"nextup/internal/plan/energy"
	"nextup/internal/plan/freetime"
	"nextup/internal/plan/geo"
	"nextup/internal/plan/recurrence"
	"nextup/internal/proposer"
	"nextup/internal/storage"
	logx "nextup/pkg/logx"
)

// ErrNoPendingTasks re-exports the arbiter sentinel so callers can treat
// "nothing to do" as the distinct condition it is.
var ErrNoPendingTasks = arbiter.ErrNoPendingTasks

// Config bounds context assembly for planning passes.
type Config struct {
	Timezone    string
	HorizonDays int
	WakeHour    int
	SleepHour   int
	MinBlock    time.Duration

	Profile   *model.EnergyProfile
	Locations []model.SavedLocation
}

// PassOptions carry the per-invocation signals the config cannot know.
type PassOptions struct {
	// Latitude/Longitude are the device's current coordinates, when known.
	Latitude  *float64
	Longitude *float64

	// EnergyOverride, when set, wins over the profile lookup.
	EnergyOverride model.EnergyLevel
}

// PlanReport is the outcome of one scheduling pass.
type PlanReport struct {
	Accepted []model.ScheduledBlock
	Rejected []arbiter.Rejection

	// Pending is how many tasks were eligible when the pass ran.
	Pending int
}

type Service struct {
	mu  sync.Mutex
	cfg Config
	loc *time.Location

	store storage.Store
	prop  proposer.Proposer
	bus   eventbus.Bus
	log   logx.Logger

	// now is swappable for tests.
	now func() time.Time
}

func New(cfg Config, store storage.Store, prop proposer.Proposer, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		store: store,
		prop:  prop,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}
	s.Apply(cfg)
	return s
}

// Apply swaps the planning config (hot reload).
func (s *Service) Apply(cfg Config) {
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			s.log.Warn("invalid timezone; staying on local time", logx.String("tz", tz), logx.Err(err))
		}
	}

	s.mu.Lock()
	s.cfg = cfg
	s.loc = loc
	s.mu.Unlock()
}

// Location reports the timezone planning currently runs in.
func (s *Service) Location() *time.Location {
	_, loc := s.snapshot()
	return loc
}

func (s *Service) snapshot() (Config, *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.loc
}

// PlanOnce runs a full scheduling pass. A pass with no pending tasks is a
// no-op, not an error. Proposer failures degrade to an empty proposal; store
// failures abort the pass.
func (s *Service) PlanOnce(ctx context.Context, opts PassOptions) (PlanReport, error) {
	started := s.now()
	pc, pending, err := s.buildContext(ctx, opts)
	if err != nil {
		return PlanReport{}, err
	}
	if len(pending) == 0 {
		s.log.Debug("no pending tasks; skipping pass")
		return PlanReport{}, nil
	}

	proposed, err := s.prop.ProposeSchedule(ctx, pc)
	if err != nil {
		// An absent or broken reasoner must never break the pass.
		s.log.Warn("schedule proposal unavailable", logx.Err(err))
		proposed = nil
	}

	res := arbiter.ArbitrateSchedule(proposed, arbiter.TaskIDSet(pending), pc.Events)

	for _, rej := range res.Rejected {
		s.log.Info("dropped proposed block",
			logx.String("task", rej.Block.TaskID),
			logx.String("reason", string(rej.Reason)))
		s.publish(eventbus.TypeBlockRejected, rej)
	}
	for _, b := range res.Accepted {
		if err := s.persistBlock(ctx, b); err != nil {
			return PlanReport{}, err
		}
		s.publish(eventbus.TypeBlockAccepted, b)
	}

	report := PlanReport{Accepted: res.Accepted, Rejected: res.Rejected, Pending: len(pending)}
	s.publish(eventbus.TypePassCompleted, report)
	s.log.Info("planning pass completed",
		logx.Int("accepted", len(res.Accepted)),
		logx.Int("rejected", len(res.Rejected)),
		logx.Duration("took", s.now().Sub(started)))
	return report, nil
}

// Recommend runs the single best-task flow. The single-pending shortcut skips
// the external call entirely; zero pending tasks is ErrNoPendingTasks.
func (s *Service) Recommend(ctx context.Context, opts PassOptions) (arbiter.RecommendationResult, error) {
	pc, pending, err := s.buildContext(ctx, opts)
	if err != nil {
		return arbiter.RecommendationResult{}, err
	}
	if len(pending) == 0 {
		return arbiter.RecommendationResult{}, ErrNoPendingTasks
	}

	var proposed *model.Recommendation
	if len(pending) > 1 {
		rec, err := s.prop.ProposeRecommendation(ctx, pc)
		if err != nil {
			s.log.Warn("recommendation proposal unavailable", logx.Err(err))
		} else {
			proposed = &rec
		}
	}

	res, err := arbiter.ArbitrateRecommendation(proposed, pending)
	if err != nil {
		return arbiter.RecommendationResult{}, err
	}
	if res.Fallback {
		s.log.Info("proposal discarded; deterministic fallback used",
			logx.String("task", res.TaskID))
		s.publish(eventbus.TypeRecFallback, res.Recommendation)
	}
	return res, nil
}

// buildContext assembles the ground-truth snapshot for one pass.
func (s *Service) buildContext(ctx context.Context, opts PassOptions) (model.PlanContext, []model.Task, error) {
	cfg, loc := s.snapshot()
	now := s.now().In(loc)

	pending, err := s.store.PendingTasks(ctx)
	if err != nil {
		return model.PlanContext{}, nil, err
	}

	horizonEnd := now.AddDate(0, 0, cfg.HorizonDays)
	events, err := s.store.EventsBetween(ctx, now, horizonEnd)
	if err != nil {
		return model.PlanContext{}, nil, err
	}

	recurring, err := s.store.RecurringEvents(ctx)
	if err != nil {
		return model.PlanContext{}, nil, err
	}
	for _, def := range recurring {
		rule := def.Rule
		for _, inst := range recurrence.Expand(def.Event, &rule) {
			if inst.Overlaps(now, horizonEnd) {
				events = append(events, inst)
			}
		}
	}

	blocks := freetime.Find(freetime.Params{
		Now:         now,
		HorizonDays: cfg.HorizonDays,
		WakeHour:    cfg.WakeHour,
		SleepHour:   cfg.SleepHour,
		MinBlock:    cfg.MinBlock,
	}, events)

	pc := model.PlanContext{
		Now:        now,
		Timezone:   loc.String(),
		Energy:     energy.Resolve(now, loc, cfg.Profile, opts.EnergyOverride),
		Tasks:      pending,
		Events:     events,
		FreeBlocks: blocks,
	}
	if opts.Latitude != nil && opts.Longitude != nil {
		pc.Location = geo.Nearest(*opts.Latitude, *opts.Longitude, cfg.Locations)
	}
	return pc, pending, nil
}

func (s *Service) persistBlock(ctx context.Context, b model.ScheduledBlock) error {
	if err := s.store.SetTaskScheduled(ctx, b.TaskID, b.Start); err != nil {
		return err
	}
	return s.store.AppendPlan(ctx, storage.PlanEntry{
		ID:        uuid.NewString(),
		At:        s.now(),
		TaskID:    b.TaskID,
		Start:     b.Start,
		End:       b.End,
		Reasoning: b.Reasoning,
	})
}

func (s *Service) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
