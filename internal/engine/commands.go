package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jmorken/codeclock/internal/clock"
	"github.com/jmorken/codeclock/internal/eligibility"
	"github.com/jmorken/codeclock/internal/model"
	"github.com/jmorken/codeclock/internal/protocol"
)

// Commands validate every precondition before touching session state,
// so a rejection is free of partial mutation. Each accepted command
// journals, schedules a persistence write, and returns the new view.

// SelectPathway starts the code clock on the chosen protocol branch.
func (e *Engine) SelectPathway(mode model.PathwayMode) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if e.sess.Phase != model.PhasePathwaySelection {
		return View{}, model.Reject(model.ErrPathwayLocked, "pathway already selected")
	}
	if !mode.Valid() {
		return View{}, model.Reject(model.ErrInvalidArgument, fmt.Sprintf("unknown pathway mode %q", mode))
	}

	now := e.clk.Now()
	e.sess.PathwayMode = mode
	e.sess.Phase = model.PhaseCPRPendingRhythm
	e.sess.StartTime = &now
	e.log.Info("pathway selected", zap.String("session_id", e.sess.ID), zap.String("mode", string(mode)))
	e.persistLocked()
	return e.viewLocked(now), nil
}

// SetPatientWeight records the pediatric dosing weight. It may be
// corrected at any time before the code ends; doses computed after the
// change use the new weight.
func (e *Engine) SetPatientWeight(kg float64) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if e.sess.PathwayMode != model.PathwayPediatric {
		return View{}, model.Reject(model.ErrInvalidArgument, "patient weight applies to the pediatric pathway only")
	}
	if !protocol.ValidWeight(kg) {
		return View{}, model.Reject(model.ErrWeightOutOfRange,
			fmt.Sprintf("weight must be between %v and %v kg", protocol.MinWeightKg, protocol.MaxWeightKg))
	}

	e.sess.PatientWeightKg = &kg
	e.journal.Append(model.InterventionWeightSet, "patient weight", &kg)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// SelectRhythm resolves a rhythm analysis. It starts a fresh CPR cycle
// and routes the session to the shockable or non-shockable branch. Every
// call after the first journals a rhythm check.
func (e *Engine) SelectRhythm(rhythm model.Rhythm) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if e.sess.Phase != model.PhaseCPRPendingRhythm && e.sess.Phase != model.PhaseRhythmCheck {
		return View{}, model.Reject(model.ErrWrongPhase, "rhythm selection requires a pending rhythm analysis")
	}
	if !rhythm.Valid() {
		return View{}, model.Reject(model.ErrInvalidArgument, fmt.Sprintf("unknown rhythm %q", rhythm))
	}

	initial := e.sess.Phase == model.PhaseCPRPendingRhythm

	now := e.clk.Now()
	e.sess.CurrentRhythm = rhythm
	e.sess.CPRCycleStartTime = &now
	if rhythm.Shockable() {
		e.sess.Phase = model.PhaseActiveShockable
	} else {
		e.sess.Phase = model.PhaseActiveNonShockable
	}
	if !initial {
		e.journal.Append(model.InterventionRhythmCheck, string(rhythm), nil)
	}
	e.log.Info("rhythm selected",
		zap.String("session_id", e.sess.ID),
		zap.String("rhythm", string(rhythm)),
		zap.Bool("shockable", rhythm.Shockable()))
	e.persistLocked()
	return e.viewLocked(now), nil
}

// RecordShock journals a defibrillation at the protocol energy for the
// current shock sequence. Shocks are only accepted against a freshly
// analyzed shockable rhythm.
func (e *Engine) RecordShock() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if e.sess.Phase != model.PhaseActiveShockable {
		return View{}, model.Reject(model.ErrWrongPhase, "shock requires an active shockable rhythm")
	}
	if err := e.weightLocked(); err != nil {
		return View{}, err
	}

	now := e.clk.Now()
	snap := eligibility.Evaluate(e.sess, e.countsLocked(), e.cfg, now)
	if !snap.CanShock {
		return View{}, model.Reject(model.ErrShockOutsideCheck, "shock is only valid during a rhythm-check window")
	}

	dose := protocol.ShockEnergy(e.sess.PathwayMode, e.journal.CountOf(model.InterventionShock),
		e.cfg.AdultDefibrillatorEnergy, e.sess.PatientWeightKg)
	rec := e.journal.Append(model.InterventionShock, dose.Display, dose.Value)
	e.log.Info("shock recorded",
		zap.String("session_id", e.sess.ID),
		zap.Int("shock_number", rec.DoseStep+1),
		zap.String("energy", dose.Display))
	e.persistLocked()
	return e.viewLocked(now), nil
}

// RecordEpinephrine journals a dose and restarts the refractory
// interval.
func (e *Engine) RecordEpinephrine() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activeLocked(); err != nil {
		return View{}, err
	}
	if err := e.weightLocked(); err != nil {
		return View{}, err
	}

	now := e.clk.Now()
	if e.sess.LastEpinephrineTime != nil &&
		!clock.IsDue(now, *e.sess.LastEpinephrineTime, e.cfg.EpinephrineInterval()) {
		return View{}, model.Reject(model.ErrEpiRefractory,
			fmt.Sprintf("next epinephrine dose in %s", clock.Remaining(now, *e.sess.LastEpinephrineTime, e.cfg.EpinephrineInterval())))
	}

	dose := protocol.EpinephrineDose(e.sess.PathwayMode, e.sess.PatientWeightKg)
	e.sess.LastEpinephrineTime = &now
	rec := e.journal.Append(model.InterventionEpinephrine, dose.Display, dose.Value)
	e.log.Info("epinephrine recorded",
		zap.String("session_id", e.sess.ID),
		zap.Int("dose_number", rec.DoseStep+1),
		zap.String("dose", dose.Display))
	e.persistLocked()
	return e.viewLocked(now), nil
}

// RecordAmiodarone journals an antiarrhythmic dose, 300 mg then 150 mg,
// hard-capped at two doses per session.
func (e *Engine) RecordAmiodarone() (View, error) {
	return e.recordAntiarrhythmic(model.InterventionAmiodarone, protocol.AmiodaroneMaxDoses,
		func(step int) model.DoseDescriptor {
			return protocol.AmiodaroneDose(e.sess.PathwayMode, step, e.sess.PatientWeightKg)
		})
}

// RecordLidocaine journals the alternative antiarrhythmic, 100 mg then
// 50 mg, capped at the 3 mg/kg aggregate expressed as three doses.
func (e *Engine) RecordLidocaine() (View, error) {
	return e.recordAntiarrhythmic(model.InterventionLidocaine, protocol.LidocaineMaxDoses,
		func(step int) model.DoseDescriptor {
			return protocol.LidocaineDose(e.sess.PathwayMode, step, e.sess.PatientWeightKg)
		})
}

func (e *Engine) recordAntiarrhythmic(t model.InterventionType, maxDoses int,
	doseFor func(step int) model.DoseDescriptor) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activeLocked(); err != nil {
		return View{}, err
	}
	if !e.sess.CurrentRhythm.Shockable() {
		return View{}, model.Reject(model.ErrRhythmNotShock, "antiarrhythmics require a shockable rhythm")
	}
	if err := e.weightLocked(); err != nil {
		return View{}, err
	}
	step := e.journal.CountOf(t)
	if step >= maxDoses {
		return View{}, model.Reject(model.ErrDoseCapReached,
			fmt.Sprintf("%s capped at %d doses per session", t, maxDoses))
	}

	now := e.clk.Now()
	dose := doseFor(step)
	switch t {
	case model.InterventionAmiodarone:
		e.sess.LastAmiodaroneTime = &now
	case model.InterventionLidocaine:
		e.sess.LastLidocaineTime = &now
	}
	rec := e.journal.Append(t, dose.Display, dose.Value)
	e.log.Info("antiarrhythmic recorded",
		zap.String("session_id", e.sess.ID),
		zap.String("drug", string(t)),
		zap.Int("dose_number", rec.DoseStep+1),
		zap.String("dose", dose.Display))
	e.persistLocked()
	return e.viewLocked(now), nil
}

// BeginRhythmCheck pauses compressions for rhythm analysis. The journal
// entry is written when the analysis resolves via SelectRhythm.
func (e *Engine) BeginRhythmCheck() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activeLocked(); err != nil {
		return View{}, err
	}
	now := e.clk.Now()
	snap := eligibility.Evaluate(e.sess, e.countsLocked(), e.cfg, now)
	if !snap.RhythmCheckDue {
		return View{}, model.Reject(model.ErrCheckNotDue,
			fmt.Sprintf("rhythm check due in %s", snap.CycleRemaining))
	}

	e.sess.Phase = model.PhaseRhythmCheck
	e.persistLocked()
	return e.viewLocked(now), nil
}

// AchieveROSC records return of spontaneous circulation and moves to
// post-ROSC care.
func (e *Engine) AchieveROSC() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activeLocked(); err != nil {
		return View{}, err
	}

	now := e.clk.Now()
	e.sess.ROSCTime = &now
	e.sess.Phase = model.PhasePostROSC
	e.journal.Append(model.InterventionROSC, "return of spontaneous circulation", nil)
	e.log.Info("rosc achieved", zap.String("session_id", e.sess.ID))
	e.persistLocked()
	return e.viewLocked(now), nil
}

// Terminate ends the code with the given outcome. Valid from any
// non-terminal state, including post-ROSC.
func (e *Engine) Terminate(outcome model.Outcome) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if !outcome.Valid() {
		return View{}, model.Reject(model.ErrInvalidArgument, fmt.Sprintf("unknown outcome %q", outcome))
	}

	now := e.clk.Now()
	e.sess.Outcome = outcome
	e.sess.EndTime = &now
	e.sess.Phase = model.PhaseCodeEnded
	e.journal.Append(model.InterventionTermination, string(outcome), nil)
	e.log.Info("session terminated",
		zap.String("session_id", e.sess.ID),
		zap.String("outcome", string(outcome)))
	e.persistLocked()
	return e.viewLocked(now), nil
}

func (e *Engine) notEndedLocked() error {
	if e.sess.Phase.Terminal() {
		return model.Reject(model.ErrSessionEnded, "session has ended")
	}
	return nil
}

func (e *Engine) activeLocked() error {
	if e.sess.Phase.Terminal() {
		return model.Reject(model.ErrSessionEnded, "session has ended")
	}
	if !e.sess.Phase.Active() {
		return model.Reject(model.ErrWrongPhase, "requires an active resuscitation phase")
	}
	return nil
}

// weightLocked gates dose-producing actions on the pediatric pathway.
func (e *Engine) weightLocked() error {
	if e.sess.PathwayMode == model.PathwayPediatric && e.sess.PatientWeightKg == nil {
		return model.Reject(model.ErrWeightRequired, "pediatric dosing requires the patient weight")
	}
	return nil
}
