package eligibility_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmorken/codeclock/internal/config"
	"github.com/jmorken/codeclock/internal/eligibility"
	"github.com/jmorken/codeclock/internal/model"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func activeSession(phase model.Phase, rhythm model.Rhythm) *model.Session {
	start := t0
	cycle := t0
	return &model.Session{
		ID:                "s1",
		PathwayMode:       model.PathwayAdult,
		Phase:             phase,
		CurrentRhythm:     rhythm,
		StartTime:         &start,
		CPRCycleStartTime: &cycle,
	}
}

func TestEpinephrineRefractoryInterval(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)

	// Never dosed: allowed, but not "due".
	snap := eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0)
	require.True(t, snap.CanGiveEpinephrine)
	require.False(t, snap.EpiDue)

	lastEpi := t0
	sess.LastEpinephrineTime = &lastEpi

	snap = eligibility.Evaluate(sess, eligibility.Counts{Epinephrine: 1}, cfg, t0.Add(3*time.Minute+59*time.Second))
	require.False(t, snap.CanGiveEpinephrine)
	require.Equal(t, time.Second, snap.EpinephrineIn)

	snap = eligibility.Evaluate(sess, eligibility.Counts{Epinephrine: 1}, cfg, t0.Add(4*time.Minute))
	require.True(t, snap.CanGiveEpinephrine)
	require.True(t, snap.EpiDue)
}

func TestRhythmCheckCycle(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)

	snap := eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(time.Minute))
	require.False(t, snap.RhythmCheckDue)
	require.Equal(t, time.Minute, snap.CycleRemaining)
	require.False(t, snap.PreShockWindow)

	// Final seconds before due: pre-shock window for shockable rhythms.
	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(110*time.Second))
	require.True(t, snap.PreShockWindow)
	require.False(t, snap.RhythmCheckDue)

	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(2*time.Minute))
	require.True(t, snap.RhythmCheckDue)
	require.False(t, snap.PreShockWindow)

	// Non-shockable rhythms never get the pre-shock window.
	pea := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	snap = eligibility.Evaluate(pea, eligibility.Counts{}, cfg, t0.Add(110*time.Second))
	require.False(t, snap.PreShockWindow)
}

func TestCanShockWindows(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)

	// Right after rhythm selection: shock for the analyzed rhythm.
	snap := eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0)
	require.True(t, snap.CanShock)

	// Mid-cycle: no shock outside a rhythm-check window.
	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(90*time.Second))
	require.False(t, snap.CanShock)

	// Pre-shock window and due again allow it.
	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(110*time.Second))
	require.True(t, snap.CanShock)
	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(3*time.Minute))
	require.True(t, snap.CanShock)

	// Never in a non-shockable phase.
	pea := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	snap = eligibility.Evaluate(pea, eligibility.Counts{}, cfg, t0.Add(3*time.Minute))
	require.False(t, snap.CanShock)
}

func TestAntiarrhythmicCaps(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)

	snap := eligibility.Evaluate(sess, eligibility.Counts{Amiodarone: 1}, cfg, t0)
	require.True(t, snap.CanGiveAmiodarone)

	// Cap reached: permanently disabled for the session.
	snap = eligibility.Evaluate(sess, eligibility.Counts{Amiodarone: 2}, cfg, t0)
	require.False(t, snap.CanGiveAmiodarone)

	snap = eligibility.Evaluate(sess, eligibility.Counts{Lidocaine: 3}, cfg, t0)
	require.False(t, snap.CanGiveLidocaine)

	// Non-shockable rhythm blocks both regardless of counts.
	pea := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	snap = eligibility.Evaluate(pea, eligibility.Counts{}, cfg, t0)
	require.False(t, snap.CanGiveAmiodarone)
	require.False(t, snap.CanGiveLidocaine)
}

func TestPediatricWeightGate(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)
	sess.PathwayMode = model.PathwayPediatric

	// Missing weight blocks every dose-producing action.
	snap := eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0)
	require.False(t, snap.CanGiveEpinephrine)
	require.False(t, snap.CanGiveAmiodarone)
	require.False(t, snap.CanShock)

	kg := 20.0
	sess.PatientWeightKg = &kg
	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0)
	require.True(t, snap.CanGiveEpinephrine)
	require.True(t, snap.CanGiveAmiodarone)
	require.True(t, snap.CanShock)
}

func TestECMOEligibility(t *testing.T) {
	cfg := config.Default() // 10 minute threshold
	sess := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)

	snap := eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(9*time.Minute))
	require.False(t, snap.ECMOEligible)

	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(10*time.Minute))
	require.True(t, snap.ECMOEligible)
}

func TestDeliveryDeadline(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	sess.PregnancyActive = true
	sess.PregnancyInterventions.FundusAtUmbilicus = true

	snap := eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(4*time.Minute+59*time.Second))
	require.False(t, snap.DeliveryDeadlineReached)
	require.Equal(t, time.Second, snap.DeliveryIn)

	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(5*time.Minute))
	require.True(t, snap.DeliveryDeadlineReached)

	// Fundus below umbilicus: deadline does not apply.
	sess.PregnancyInterventions.FundusAtUmbilicus = false
	snap = eligibility.Evaluate(sess, eligibility.Counts{}, cfg, t0.Add(6*time.Minute))
	require.False(t, snap.DeliveryDeadlineReached)
}

func TestEvaluateIsPure(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)
	at := t0.Add(3 * time.Minute)

	first := eligibility.Evaluate(sess, eligibility.Counts{Shock: 1}, cfg, at)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, eligibility.Evaluate(sess, eligibility.Counts{Shock: 1}, cfg, at))
	}
}
