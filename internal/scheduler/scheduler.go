package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alisaviation/metricboard/internal/exposition"
	"github.com/alisaviation/metricboard/internal/jsonshape"
	"github.com/alisaviation/metricboard/internal/loader"
	"github.com/alisaviation/metricboard/internal/logger"
	"github.com/alisaviation/metricboard/internal/models"
	"github.com/alisaviation/metricboard/internal/registry"
	"github.com/alisaviation/metricboard/internal/store"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
)

const (
	// MinInterval is the polling floor; shorter requests are clamped to it.
	MinInterval = 2 * time.Second
	// DefaultInterval applies when the configured interval does not parse.
	DefaultInterval = 10 * time.Second
)

// Scheduler drives refresh cycles: it fans out one load per registered source,
// joins all of them, and only then replaces the store's snapshot. A failing
// source is logged and contributes nothing; the cycle still completes.
type Scheduler struct {
	registry *registry.Registry
	store    *store.Store
	loader   loader.ContentLoader
	clock    Clock

	mu       sync.Mutex
	state    State
	status   string
	interval time.Duration
	auto     bool
	stopTick chan struct{}
}

func NewScheduler(reg *registry.Registry, st *store.Store, ld loader.ContentLoader) *Scheduler {
	return &Scheduler{
		registry: reg,
		store:    st,
		loader:   ld,
		clock:    systemClock{},
		state:    StateIdle,
		interval: DefaultInterval,
	}
}

// SetClock replaces the wall clock, for tests. Must be called before any
// refresh or timer activity.
func (s *Scheduler) SetClock(c Clock) {
	s.clock = c
}

// Refresh runs one complete cycle and blocks until it has settled. Starting a
// new cycle does not cancel a previous one still in flight; whichever cycle
// joins last replaces the snapshot.
func (s *Scheduler) Refresh(ctx context.Context) {
	sources := s.registry.List()
	if len(sources) == 0 {
		s.store.Clear()
		s.setState(StateIdle, "no sources")
		return
	}

	s.setState(StateLoading, "Loading...")

	results := make([][]models.Metric, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src models.Source) {
			defer wg.Done()
			content, err := s.loader.Load(ctx, src)
			if err != nil {
				logger.Log.Warn("source load failed",
					zap.String("source", src.Name),
					zap.String("kind", string(src.Kind)),
					zap.Error(err))
				return
			}
			results[i] = parseContent(content)
		}(i, src)
	}
	wg.Wait()

	s.store.Clear()
	for i, src := range sources {
		s.store.Add(results[i], src.Name)
	}

	s.setState(StateIdle, fmt.Sprintf("Updated %s from %d source(s)",
		s.clock.Now().Format("15:04:05"), len(sources)))
}

// parseContent routes by content type: anything declaring json goes through the
// normalizer, everything else through the exposition parser.
func parseContent(content loader.Content) []models.Metric {
	if strings.Contains(strings.ToLower(content.Type), "json") {
		return jsonshape.Normalize(content.Body)
	}
	return exposition.Parse(string(content.Body))
}

// ParseInterval applies the interval rules: unparsable input falls back to the
// default, anything below the floor is clamped to it.
func ParseInterval(raw string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultInterval
	}
	d := time.Duration(secs * float64(time.Second))
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// SetInterval updates the refresh period and reinstalls the timer if
// auto-refresh is on. The effective interval is returned.
func (s *Scheduler) SetInterval(raw string) time.Duration {
	d := ParseInterval(raw)
	s.mu.Lock()
	s.interval = d
	s.resetTimerLocked()
	s.mu.Unlock()
	return d
}

// SetAutoRefresh toggles the periodic timer. Turning it off stops future ticks
// only; loads already in flight are left to settle.
func (s *Scheduler) SetAutoRefresh(enabled bool) {
	s.mu.Lock()
	s.auto = enabled
	s.resetTimerLocked()
	s.mu.Unlock()
}

func (s *Scheduler) Stop() {
	s.SetAutoRefresh(false)
}

func (s *Scheduler) resetTimerLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
	if !s.auto {
		return
	}

	stop := make(chan struct{})
	s.stopTick = stop
	ticker := s.clock.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				s.Refresh(context.Background())
			}
		}
	}()
}

func (s *Scheduler) setState(state State, status string) {
	s.mu.Lock()
	s.state = state
	s.status = status
	s.mu.Unlock()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the human-readable outcome of the most recent cycle.
func (s *Scheduler) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
