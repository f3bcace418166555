// Package engine is the session orchestrator. It owns the one mutable
// session, serializes commands and timer ticks behind a single mutex,
// and keeps the journal and persistence in step with every accepted
// transition. Rejected commands leave no trace.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmorken/codeclock/internal/clock"
	"github.com/jmorken/codeclock/internal/config"
	"github.com/jmorken/codeclock/internal/eligibility"
	"github.com/jmorken/codeclock/internal/journal"
	"github.com/jmorken/codeclock/internal/model"
)

// Archiver is the persistence boundary. The engine hands it serialized
// session state and expects a lossless round trip; encryption at rest
// and storage transport are the archiver's problem.
type Archiver interface {
	SaveSession(ctx context.Context, sess model.Session, records []model.InterventionRecord) error
}

// persistTimeout bounds one best-effort archive write.
const persistTimeout = 5 * time.Second

// AlertFunc receives edge-triggered alerts, highest priority first, from
// Tick and from commands that change eligibility.
type AlertFunc func([]eligibility.Alert)

type Engine struct {
	mu sync.Mutex

	cfg     config.Settings
	clk     clock.Clock
	log     *zap.Logger
	archive Archiver
	onAlert AlertFunc

	sess    *model.Session
	journal *journal.Journal
	alerts  eligibility.Alerts

	// Archive writes are drained by a single worker so snapshots commit
	// in command order. saveNext always holds the newest snapshot; an
	// older write can never land after a newer one.
	saveMu   sync.Mutex
	saveNext *archiveSave
	saving   bool
}

type archiveSave struct {
	sess    model.Session
	records []model.InterventionRecord
}

// Option configures optional collaborators.
type Option func(*Engine)

// WithArchiver attaches a best-effort session archive. Writes happen
// off the command path and never block or roll back a transition.
func WithArchiver(a Archiver) Option {
	return func(e *Engine) { e.archive = a }
}

// WithAlertFunc registers the alert consumer.
func WithAlertFunc(fn AlertFunc) Option {
	return func(e *Engine) { e.onAlert = fn }
}

// New creates an engine with a fresh session awaiting pathway selection.
func New(cfg config.Settings, clk clock.Clock, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		clk: clk,
		log: log,
		sess: &model.Session{
			ID:    uuid.NewString(),
			Phase: model.PhasePathwaySelection,
		},
		journal: journal.New(clk),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resume replaces the engine's session and journal with archived state.
// Alert latches start re-armed: a condition that is already true fires
// once on the next observation, not once per missed tick.
func (e *Engine) Resume(sess model.Session, records []model.InterventionRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j := journal.New(e.clk)
	if err := j.Restore(records); err != nil {
		return err
	}
	copied := sess
	e.sess = &copied
	e.journal = j
	e.alerts = eligibility.Alerts{}
	e.log.Info("session resumed",
		zap.String("session_id", sess.ID),
		zap.String("phase", string(sess.Phase)),
		zap.Int("records", len(records)))
	return nil
}

// View is the read-only projection consumed by UI, audio, voice, and
// report rendering.
type View struct {
	Session     model.Session
	Eligibility eligibility.Snapshot
	Counts      eligibility.Counts
	Elapsed     time.Duration
}

// Snapshot re-derives the projection on demand.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked(e.clk.Now())
}

func (e *Engine) viewLocked(now time.Time) View {
	counts := e.countsLocked()
	v := View{
		Session:     *e.sess,
		Eligibility: eligibility.Evaluate(e.sess, counts, e.cfg, now),
		Counts:      counts,
	}
	if e.sess.StartTime != nil {
		v.Elapsed = clock.Elapsed(now, *e.sess.StartTime)
	}
	return v
}

func (e *Engine) countsLocked() eligibility.Counts {
	return eligibility.Counts{
		Shock:       e.journal.CountOf(model.InterventionShock),
		Epinephrine: e.journal.CountOf(model.InterventionEpinephrine),
		Amiodarone:  e.journal.CountOf(model.InterventionAmiodarone),
		Lidocaine:   e.journal.CountOf(model.InterventionLidocaine),
	}
}

// Journal returns the full intervention log for report rendering.
func (e *Engine) Journal() []model.InterventionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.journal.All()
}

// Tick recomputes derived eligibility and fires any newly crossed
// alerts. A single tick after an arbitrary host suspension catches up
// every flag; each missed one-shot fires at most once.
func (e *Engine) Tick() []eligibility.Alert {
	e.mu.Lock()
	now := e.clk.Now()
	snap := eligibility.Evaluate(e.sess, e.countsLocked(), e.cfg, now)
	if snap.ECMOEligible && e.sess.ECMOEligibleTime == nil {
		// Stamp when eligibility is first observed so reports can show
		// when ECMO became available.
		e.sess.ECMOEligibleTime = &now
		e.persistLocked()
	}
	fired := e.alerts.Observe(e.sess, snap)
	e.mu.Unlock()

	if len(fired) > 0 && e.onAlert != nil {
		e.onAlert(fired)
	}
	return fired
}

// RunTicker drives Tick once per second until ctx is cancelled.
func (e *Engine) RunTicker(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.Tick()
		}
	}
}

// ResetECMOAlert re-arms the ECMO one-shot, e.g. after the team stands
// down and wants the availability call again later.
func (e *Engine) ResetECMOAlert() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts.ResetECMO()
}

// persistLocked schedules a best-effort archive write of the current
// state. Failures are logged and surfaced as warnings only; in-memory
// state is never rolled back, the clinical session continues regardless
// of storage health. Snapshots are handed to a single drain worker, so
// commits happen in command order and intermediate snapshots may be
// coalesced into the newest one.
func (e *Engine) persistLocked() {
	if e.archive == nil {
		return
	}
	snap := &archiveSave{sess: *e.sess, records: e.journal.All()}

	e.saveMu.Lock()
	e.saveNext = snap
	if e.saving {
		e.saveMu.Unlock()
		return
	}
	e.saving = true
	e.saveMu.Unlock()
	go e.drainSaves()
}

func (e *Engine) drainSaves() {
	for {
		e.saveMu.Lock()
		snap := e.saveNext
		e.saveNext = nil
		if snap == nil {
			e.saving = false
			e.saveMu.Unlock()
			return
		}
		e.saveMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := e.archive.SaveSession(ctx, snap.sess, snap.records)
		cancel()
		if err != nil {
			e.log.Warn("session archive write failed",
				zap.String("session_id", snap.sess.ID),
				zap.Error(err))
		}
	}
}
