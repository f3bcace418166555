package eligibility

import (
	"sort"
	"time"

	"github.com/jmorken/codeclock/internal/model"
)

type Alert string

const (
	AlertDeliveryDeadline Alert = "delivery_deadline"
	AlertPreShock         Alert = "pre_shock"
	AlertRhythmCheckDue   Alert = "rhythm_check_due"
	AlertEpinephrineDue   Alert = "epinephrine_due"
	AlertECMOAvailable    Alert = "ecmo_available"
)

// alertPrecedence orders simultaneous alerts for the single voice/audio
// consumer.
var alertPrecedence = map[Alert]int{
	AlertDeliveryDeadline: 1,
	AlertPreShock:         2,
	AlertRhythmCheckDue:   3,
	AlertEpinephrineDue:   4,
	AlertECMOAvailable:    5,
}

// latch fires once per rising edge of its condition; a false condition
// re-arms it.
type latch struct {
	fired bool
}

func (l *latch) observe(cond bool) bool {
	if !cond {
		l.fired = false
		return false
	}
	if l.fired {
		return false
	}
	l.fired = true
	return true
}

// stickyLatch fires once and stays fired until explicitly reset.
type stickyLatch struct {
	fired bool
}

func (l *stickyLatch) observe(cond bool) bool {
	if !cond || l.fired {
		return false
	}
	l.fired = true
	return true
}

func (l *stickyLatch) reset() {
	l.fired = false
}

// cycleLatch re-arms whenever its anchoring key changes, so it fires at
// most once per CPR cycle.
type cycleLatch struct {
	key   time.Time
	fired bool
}

func (l *cycleLatch) observe(key time.Time, cond bool) bool {
	if !key.Equal(l.key) {
		l.key = key
		l.fired = false
	}
	if !cond || l.fired {
		return false
	}
	l.fired = true
	return true
}

// Alerts is the ephemeral one-shot state carried alongside the session.
// It is never persisted: reloading a session re-arms every latch, and a
// condition that is already true fires at most once on the next
// observation, not once per missed tick.
//
// Re-arm rules: epinephrine-due and delivery-deadline re-arm when their
// condition clears (a new dose, or fundus toggled off); pre-shock and
// rhythm-check re-arm when a new CPR cycle starts; ECMO re-arms only via
// ResetECMO.
type Alerts struct {
	epiDue   latch
	preShock cycleLatch
	check    cycleLatch
	ecmo     stickyLatch
	delivery latch
}

// Observe advances every latch against the given snapshot and returns
// the alerts that fired on this observation, highest priority first.
func (a *Alerts) Observe(sess *model.Session, snap Snapshot) []Alert {
	var cycleKey time.Time
	if sess.CPRCycleStartTime != nil {
		cycleKey = *sess.CPRCycleStartTime
	}

	out := make([]Alert, 0, 2)
	if a.delivery.observe(snap.DeliveryDeadlineReached) {
		out = append(out, AlertDeliveryDeadline)
	}
	if a.preShock.observe(cycleKey, snap.PreShockWindow) {
		out = append(out, AlertPreShock)
	}
	if a.check.observe(cycleKey, snap.RhythmCheckDue) {
		out = append(out, AlertRhythmCheckDue)
	}
	if a.epiDue.observe(snap.EpiDue) {
		out = append(out, AlertEpinephrineDue)
	}
	if a.ecmo.observe(snap.ECMOEligible) {
		out = append(out, AlertECMOAvailable)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return alertPrecedence[out[i]] < alertPrecedence[out[j]]
	})
	return out
}

// ResetECMO re-arms the ECMO one-shot so a later observation may fire it
// again.
func (a *Alerts) ResetECMO() {
	a.ecmo.reset()
}
