package eligibility_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmorken/codeclock/internal/config"
	"github.com/jmorken/codeclock/internal/eligibility"
	"github.com/jmorken/codeclock/internal/model"
)

func observeAt(a *eligibility.Alerts, sess *model.Session, counts eligibility.Counts, cfg config.Settings, at time.Time) []eligibility.Alert {
	return a.Observe(sess, eligibility.Evaluate(sess, counts, cfg, at))
}

func TestECMOAlertFiresOncePerCrossing(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	var alerts eligibility.Alerts

	// 1-second tick granularity.
	fired := 0
	for s := 0; s <= 700; s++ {
		for _, a := range observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(time.Duration(s)*time.Second)) {
			if a == eligibility.AlertECMOAvailable {
				fired++
			}
		}
	}
	require.Equal(t, 1, fired)
}

func TestECMOAlertGranularityIndependent(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	var alerts eligibility.Alerts

	// 5-second ticks crossing the same threshold fire exactly once too.
	fired := 0
	for s := 0; s <= 700; s += 5 {
		for _, a := range observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(time.Duration(s)*time.Second)) {
			if a == eligibility.AlertECMOAvailable {
				fired++
			}
		}
	}
	require.Equal(t, 1, fired)
}

func TestECMOAlertRearmsOnlyViaReset(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	var alerts eligibility.Alerts

	got := observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(11*time.Minute))
	require.Contains(t, got, eligibility.AlertECMOAvailable)

	got = observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(12*time.Minute))
	require.NotContains(t, got, eligibility.AlertECMOAvailable)

	alerts.ResetECMO()
	got = observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(13*time.Minute))
	require.Contains(t, got, eligibility.AlertECMOAvailable)
}

func TestDeliveryAlertRearmsOnFundusToggle(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveNonShockable, model.RhythmPEA)
	sess.PregnancyActive = true
	sess.PregnancyInterventions.FundusAtUmbilicus = true
	var alerts eligibility.Alerts

	got := observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(4*time.Minute+59*time.Second))
	require.NotContains(t, got, eligibility.AlertDeliveryDeadline)

	got = observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(5*time.Minute))
	require.Contains(t, got, eligibility.AlertDeliveryDeadline)

	// Level-holding: no repeat while the condition stays true.
	got = observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(5*time.Minute+30*time.Second))
	require.NotContains(t, got, eligibility.AlertDeliveryDeadline)

	// Toggling the fundus flag off then on re-arms the alert.
	sess.PregnancyInterventions.FundusAtUmbilicus = false
	observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(6*time.Minute))
	sess.PregnancyInterventions.FundusAtUmbilicus = true
	got = observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(6*time.Minute+30*time.Second))
	require.Contains(t, got, eligibility.AlertDeliveryDeadline)
}

func TestPreShockAndCheckFireOncePerCycle(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)
	var alerts eligibility.Alerts

	preShock, checks := 0, 0
	for s := 0; s <= 150; s++ {
		for _, a := range observeAt(&alerts, sess, eligibility.Counts{}, cfg, t0.Add(time.Duration(s)*time.Second)) {
			switch a {
			case eligibility.AlertPreShock:
				preShock++
			case eligibility.AlertRhythmCheckDue:
				checks++
			}
		}
	}
	require.Equal(t, 1, preShock)
	require.Equal(t, 1, checks)

	// New cycle re-arms both.
	next := t0.Add(3 * time.Minute)
	sess.CPRCycleStartTime = &next
	preShock, checks = 0, 0
	for s := 0; s <= 150; s++ {
		for _, a := range observeAt(&alerts, sess, eligibility.Counts{}, cfg, next.Add(time.Duration(s)*time.Second)) {
			switch a {
			case eligibility.AlertPreShock:
				preShock++
			case eligibility.AlertRhythmCheckDue:
				checks++
			}
		}
	}
	require.Equal(t, 1, preShock)
	require.Equal(t, 1, checks)
}

func TestEpiDueAlertRearmsAfterEachDose(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)
	var alerts eligibility.Alerts

	lastEpi := t0
	sess.LastEpinephrineTime = &lastEpi

	got := observeAt(&alerts, sess, eligibility.Counts{Epinephrine: 1}, cfg, t0.Add(4*time.Minute))
	require.Contains(t, got, eligibility.AlertEpinephrineDue)
	got = observeAt(&alerts, sess, eligibility.Counts{Epinephrine: 1}, cfg, t0.Add(4*time.Minute+30*time.Second))
	require.NotContains(t, got, eligibility.AlertEpinephrineDue)

	// A new dose clears the condition and re-arms the latch.
	nextDose := t0.Add(5 * time.Minute)
	sess.LastEpinephrineTime = &nextDose
	observeAt(&alerts, sess, eligibility.Counts{Epinephrine: 2}, cfg, t0.Add(6*time.Minute))
	got = observeAt(&alerts, sess, eligibility.Counts{Epinephrine: 2}, cfg, t0.Add(9*time.Minute))
	require.Contains(t, got, eligibility.AlertEpinephrineDue)
}

func TestAlertPriorityOrdering(t *testing.T) {
	cfg := config.Default()
	sess := activeSession(model.PhaseActiveShockable, model.RhythmVFPVT)
	sess.PregnancyActive = true
	sess.PregnancyInterventions.FundusAtUmbilicus = true
	lastEpi := t0
	sess.LastEpinephrineTime = &lastEpi
	var alerts eligibility.Alerts

	// One observation at t+10m crosses every threshold at once.
	got := observeAt(&alerts, sess, eligibility.Counts{Epinephrine: 1}, cfg, t0.Add(10*time.Minute))
	require.Equal(t, []eligibility.Alert{
		eligibility.AlertDeliveryDeadline,
		eligibility.AlertRhythmCheckDue,
		eligibility.AlertEpinephrineDue,
		eligibility.AlertECMOAvailable,
	}, got)
}
