// Package eligibility derives which actions are currently permitted or
// due. Evaluate is a pure function of the session snapshot, journal
// counts, settings, and now; nothing here depends on how often it is
// called. The one-shot alert state lives in Alerts, outside the
// persisted session.
package eligibility

import (
	"time"

	"github.com/jmorken/codeclock/internal/clock"
	"github.com/jmorken/codeclock/internal/config"
	"github.com/jmorken/codeclock/internal/model"
	"github.com/jmorken/codeclock/internal/protocol"
)

// Counts are journal-derived intervention tallies supplied by the caller.
type Counts struct {
	Shock       int
	Epinephrine int
	Amiodarone  int
	Lidocaine   int
}

// Snapshot is the per-observation eligibility projection consumed by the
// UI, audio, and voice layers.
type Snapshot struct {
	CanGiveEpinephrine bool
	EpiDue             bool
	EpinephrineIn      time.Duration

	RhythmCheckDue bool
	CycleRemaining time.Duration
	PreShockWindow bool
	CanShock       bool

	CanGiveAmiodarone bool
	CanGiveLidocaine  bool

	ECMOEligible bool

	DeliveryDeadlineReached bool
	DeliveryIn              time.Duration
}

func Evaluate(sess *model.Session, counts Counts, cfg config.Settings, now time.Time) Snapshot {
	var snap Snapshot

	active := sess.Phase.Active()
	inCycle := sess.Phase == model.PhaseActiveShockable || sess.Phase == model.PhaseActiveNonShockable
	weightOK := sess.PathwayMode == model.PathwayAdult || sess.PatientWeightKg != nil

	epiInterval := cfg.EpinephrineInterval()
	if sess.LastEpinephrineTime == nil {
		snap.CanGiveEpinephrine = active && weightOK
	} else {
		snap.EpinephrineIn = clock.Remaining(now, *sess.LastEpinephrineTime, epiInterval)
		snap.CanGiveEpinephrine = active && weightOK && snap.EpinephrineIn == 0
		snap.EpiDue = snap.CanGiveEpinephrine
	}

	if inCycle && sess.CPRCycleStartTime != nil {
		cycleStart := *sess.CPRCycleStartTime
		snap.CycleRemaining = clock.Remaining(now, cycleStart, protocol.CPRCycleDuration)
		snap.RhythmCheckDue = snap.CycleRemaining == 0
		snap.PreShockWindow = sess.CurrentRhythm.Shockable() &&
			snap.CycleRemaining > 0 && snap.CycleRemaining <= protocol.PreShockAlertLead
		snap.CanShock = sess.Phase == model.PhaseActiveShockable && weightOK &&
			(snap.RhythmCheckDue || snap.PreShockWindow ||
				clock.Elapsed(now, cycleStart) <= protocol.PostCheckShockWindow)
	}

	shockableDrug := active && sess.CurrentRhythm.Shockable() && weightOK
	snap.CanGiveAmiodarone = shockableDrug && counts.Amiodarone < protocol.AmiodaroneMaxDoses
	snap.CanGiveLidocaine = shockableDrug && counts.Lidocaine < protocol.LidocaineMaxDoses

	if active && sess.StartTime != nil {
		snap.ECMOEligible = clock.IsDue(now, *sess.StartTime, cfg.ECMOActivationTime())
	}

	if active && sess.PregnancyActive && sess.StartTime != nil {
		snap.DeliveryIn = clock.Remaining(now, *sess.StartTime, protocol.DeliveryDeadline)
		snap.DeliveryDeadlineReached = sess.PregnancyInterventions.FundusAtUmbilicus &&
			snap.DeliveryIn == 0
	}

	return snap
}
