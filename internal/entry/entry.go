// Package entry owns the per-tracker update cycle: every subscribed state
// change, periodic tick and reset action is queued onto one channel and
// processed by a single goroutine, so a cycle always runs to completion
// (through persistence write-through) before the next one starts.
package entry

import (
	"context"
	"log"
	"sync"
	"time"

	"solardelta/internal/average"
	"solardelta/internal/config"
	"solardelta/internal/coverage"
	"solardelta/internal/display"
	"solardelta/internal/hass"
	"solardelta/internal/model"
	"solardelta/internal/persist"
)

// Notifier receives the snapshot produced by each completed update cycle.
type Notifier interface {
	OnSnapshot(snap model.EntrySnapshot)
}

type eventKind int

const (
	evState eventKind = iota
	evTick
	evReset
)

type event struct {
	kind   eventKind
	entity string
	state  string
	at     time.Time
	target model.ResetTarget
}

// Entry tracks solar coverage for one configured device and maintains its
// six time-weighted averages.
type Entry struct {
	cfg  config.Entry
	slug string
	loc  *time.Location

	solarUnit  model.PowerUnit
	deviceUnit model.PowerUnit
	gridUnit   model.PowerUnit

	bus    hass.Bus
	store  persist.Store
	notify Notifier

	events chan event

	// Owned by the Run goroutine after construction.
	accs         map[string]*average.Accumulator
	resetTracker *average.EdgeTracker

	mu   sync.RWMutex
	snap model.EntrySnapshot
}

// New builds an entry from its configuration, restoring persisted
// accumulator state and subscribing to all referenced entities. loc is the
// zone whose midnight bounds the year averages; nil means the system zone.
// Unit parse failures are configuration faults: no entry is created.
func New(cfg config.Entry, loc *time.Location, bus hass.Bus, store persist.Store, notify Notifier) (*Entry, error) {
	if loc == nil {
		loc = time.Local
	}
	var err error
	e := &Entry{
		cfg:    cfg,
		slug:   persist.Slug(cfg.Name),
		loc:    loc,
		bus:    bus,
		store:  store,
		notify: notify,
		events: make(chan event, 64),
		accs:   make(map[string]*average.Accumulator, len(model.Scopes)*len(model.Modes)),
	}

	if e.solarUnit, err = model.ParsePowerUnit(cfg.SolarUnit); err != nil {
		return nil, err
	}
	if e.deviceUnit, err = model.ParsePowerUnit(cfg.DeviceUnit); err != nil {
		return nil, err
	}
	if e.gridUnit, err = model.ParsePowerUnit(cfg.GridUnit); err != nil {
		return nil, err
	}

	for _, s := range model.Scopes {
		for _, m := range model.Modes {
			key := model.AverageKey(s, m)
			st, ok, err := store.Load(persist.Key(e.slug, key))
			if err != nil {
				log.Printf("[WARN] entry %q: load %s: %v (starting from zero)", cfg.Name, key, err)
			} else if ok {
				log.Printf("[INFO] entry %q: restored %s (%s active)", cfg.Name, key, display.Duration(st.ActiveSeconds))
			}
			e.accs[key] = average.New(st)
		}
	}

	if cfg.ResetEntity != "" {
		e.resetTracker = average.NewEdgeTracker(cfg.ResetString)
	}

	for _, id := range e.watchedEntities() {
		bus.Subscribe(id, func(ch hass.StateChange) {
			e.enqueue(event{kind: evState, entity: ch.EntityID, state: ch.State, at: ch.At})
		})
	}

	e.publish(model.CoverageResult{}, false, time.Time{})
	return e, nil
}

func (e *Entry) watchedEntities() []string {
	ids := []string{e.cfg.SolarEntity, e.cfg.DeviceEntity, e.cfg.GridEntity, e.cfg.StatusEntity, e.cfg.ResetEntity}
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Name returns the configured display name.
func (e *Entry) Name() string {
	return e.cfg.Name
}

// Snapshot returns the state exposed after the most recent update cycle.
func (e *Entry) Snapshot() model.EntrySnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// EnqueueTick queues a synthetic update cycle, used by the periodic scan and
// the year-boundary scheduler.
func (e *Entry) EnqueueTick(now time.Time) {
	e.enqueue(event{kind: evTick, at: now})
}

// EnqueueReset queues an explicit reset action. It is serialized with ticks
// on the same event queue, so a reset never interleaves with a cycle.
func (e *Entry) EnqueueReset(target model.ResetTarget) {
	e.enqueue(event{kind: evReset, at: time.Now(), target: target})
}

func (e *Entry) enqueue(ev event) {
	select {
	case e.events <- ev:
	default:
		log.Printf("[WARN] entry %q: event queue full, dropping event", e.cfg.Name)
	}
}

// Run processes events until the context is cancelled. When a scan interval
// is configured, a ticker feeds the same serialized path as state changes.
func (e *Entry) Run(ctx context.Context) {
	var tick <-chan time.Time
	if e.cfg.ScanInterval > 0 {
		t := time.NewTicker(time.Duration(e.cfg.ScanInterval) * time.Second)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.events:
			e.handle(ev)
		case now := <-tick:
			e.handle(event{kind: evTick, at: now})
		}
	}
}

func (e *Entry) handle(ev event) {
	switch ev.kind {
	case evReset:
		log.Printf("[INFO] entry %q: reset action %q", e.cfg.Name, ev.target)
		e.applyReset(ev.target)

	case evState:
		if e.resetTracker != nil && ev.entity == e.cfg.ResetEntity && hass.Usable(ev.state) {
			if e.resetTracker.Observe(ev.state) {
				log.Printf("[INFO] entry %q: reset entity entered %q, resetting session averages", e.cfg.Name, e.cfg.ResetString)
				e.applyReset(model.ResetSession)
				e.applyReset(model.ResetSessionAware)
			}
		}
	}

	e.cycle(ev.at)
}

// cycle runs one update: sanitize readings, evaluate the gate, compute
// coverage, advance all six accumulators, write through and publish.
func (e *Entry) cycle(now time.Time) {
	// Event timestamps arrive in UTC; the year boundary is defined by local
	// midnight, so shift into the configured zone before the rollover check.
	now = now.In(e.loc)

	solarW, solarOK := e.readPower(e.cfg.SolarEntity, e.solarUnit)
	deviceW, deviceOK := e.readPower(e.cfg.DeviceEntity, e.deviceUnit)

	var gridW *float64
	gridOK := true
	if e.cfg.GridEntity != "" {
		v, ok := e.readPower(e.cfg.GridEntity, e.gridUnit)
		if ok {
			gridW = &v
		} else {
			gridOK = false
		}
	}

	in := coverage.Sanitize(solarW, deviceW, gridW)

	match := e.cfg.StatusString
	if e.cfg.StatusEntity == "" {
		match = coverage.StatusDisabled
	}
	var status *string
	if e.cfg.StatusEntity != "" {
		if s, ok := e.bus.ReadState(e.cfg.StatusEntity); ok {
			status = &s
		}
	}

	gate := coverage.EvaluateGate(in.DeviceW, status, match)
	if !solarOK || !deviceOK || !gridOK {
		// An unusable input closes the gate for this cycle; the averages hold.
		gate = model.GateState{}
	}

	var cov model.CoverageResult
	if gate.Permitted() {
		cov = coverage.Compute(in)
	}

	for _, s := range model.Scopes {
		for _, m := range model.Modes {
			key := model.AverageKey(s, m)
			acc := e.accs[key]
			if s == model.ScopeYear && acc.YearRolled(now) {
				log.Printf("[INFO] entry %q: year rollover, resetting %s", e.cfg.Name, key)
				acc.Reset()
			}
			pct := cov.UnawarePct
			if m == model.ModeAware {
				pct = cov.AwarePct
			}
			acc.Tick(gate.Permitted(), pct, now)
		}
	}

	e.persistAll()
	e.publish(cov, gate.Permitted(), now)
}

func (e *Entry) readPower(entityID string, unit model.PowerUnit) (float64, bool) {
	s, ok := e.bus.ReadState(entityID)
	if !ok {
		return 0, false
	}
	v, ok := hass.ParseNumeric(s)
	if !ok {
		return 0, false
	}
	return coverage.NormalizeWatts(v, unit), true
}

func (e *Entry) applyReset(target model.ResetTarget) {
	for _, key := range target.Keys() {
		e.accs[key].Reset()
		if err := e.store.Save(persist.Key(e.slug, key), e.accs[key].State()); err != nil {
			log.Printf("[ERROR] entry %q: persist %s after reset: %v", e.cfg.Name, key, err)
		}
	}
}

// persistAll writes every accumulator through to the store. A failed write is
// logged and skipped: the in-memory state keeps operating, at the cost of a
// bounded loss window on crash.
func (e *Entry) persistAll() {
	for key, acc := range e.accs {
		if err := e.store.Save(persist.Key(e.slug, key), acc.State()); err != nil {
			log.Printf("[ERROR] entry %q: persist %s: %v", e.cfg.Name, key, err)
		}
	}
}

func (e *Entry) publish(cov model.CoverageResult, permitted bool, now time.Time) {
	avgs := make(map[string]model.AverageValue, len(e.accs))
	for key, acc := range e.accs {
		avg := acc.Average()
		avgs[key] = model.AverageValue{
			Pct:           avg,
			Formatted:     display.Percent(avg),
			ActiveSeconds: int64(acc.ActiveSeconds()),
			ActiveTime:    display.Duration(acc.ActiveSeconds()),
		}
	}

	snap := model.EntrySnapshot{
		Name:       e.cfg.Name,
		Permitted:  permitted,
		UnawarePct: cov.UnawarePct,
		UnawareFmt: display.Percent(cov.UnawarePct),
		AwarePct:   cov.AwarePct,
		AwareFmt:   display.Percent(cov.AwarePct),
		Averages:   avgs,
		UpdatedAt:  now,
	}

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()

	if e.notify != nil {
		e.notify.OnSnapshot(snap)
	}
}
