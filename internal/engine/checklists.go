package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jmorken/codeclock/internal/model"
	"github.com/jmorken/codeclock/internal/protocol"
)

// Checklist and toggle commands never change the session phase; they
// journal an audit record and update the session in place.

// UpdateHsAndTs replaces the reversible-cause checklist.
func (e *Engine) UpdateHsAndTs(list model.HsAndTs) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	e.sess.HsAndTs = list
	e.journal.Append(model.InterventionChecklistToggle, "hs_and_ts", nil)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// ActivatePregnancy starts the maternal arrest workflow. Activation is
// one-way: there is no deactivation path once the team has committed.
func (e *Engine) ActivatePregnancy() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activeLocked(); err != nil {
		return View{}, err
	}
	if e.sess.PregnancyActive {
		return View{}, model.Reject(model.ErrPregnancyLocked, "pregnancy workflow cannot be deactivated")
	}

	now := e.clk.Now()
	e.sess.PregnancyActive = true
	e.sess.PregnancyStartTime = &now
	e.journal.Append(model.InterventionPregnancy, "maternal arrest workflow activated", nil)
	e.log.Info("pregnancy workflow activated", zap.String("session_id", e.sess.ID))
	e.persistLocked()
	return e.viewLocked(now), nil
}

// UpdatePregnancyCauses replaces the maternal arrest differential.
func (e *Engine) UpdatePregnancyCauses(causes model.PregnancyCauses) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if !e.sess.PregnancyActive {
		return View{}, model.Reject(model.ErrPregnancyInactive, "pregnancy workflow is not active")
	}
	e.sess.PregnancyCauses = causes
	e.journal.Append(model.InterventionChecklistToggle, "pregnancy_causes", nil)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// UpdatePregnancyInterventions replaces the maternal arrest action list.
// Toggling FundusAtUmbilicus off then on re-arms the delivery-deadline
// alert.
func (e *Engine) UpdatePregnancyInterventions(actions model.PregnancyInterventions) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if !e.sess.PregnancyActive {
		return View{}, model.Reject(model.ErrPregnancyInactive, "pregnancy workflow is not active")
	}
	e.sess.PregnancyInterventions = actions
	e.journal.Append(model.InterventionChecklistToggle, "pregnancy_interventions", nil)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// UpdateSpecialCircumstances replaces the special-circumstance flags.
func (e *Engine) UpdateSpecialCircumstances(flags model.SpecialCircumstances) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	e.sess.SpecialCircumstances = flags
	e.journal.Append(model.InterventionChecklistToggle, "special_circumstances", nil)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// UpdateAirway records an airway status change.
func (e *Engine) UpdateAirway(status model.AirwayStatus) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if !status.Valid() {
		return View{}, model.Reject(model.ErrInvalidArgument, fmt.Sprintf("unknown airway status %q", status))
	}
	e.sess.AirwayStatus = status
	e.journal.Append(model.InterventionAirwayChange, string(status), nil)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// RecordETCO2 validates and journals a capnography reading. The journal
// value is the canonical mmHg figure regardless of the entry unit.
func (e *Engine) RecordETCO2(raw string, unit protocol.ETCO2Unit) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	reading, err := protocol.ParseETCO2(raw, unit)
	if err != nil {
		return View{}, err
	}

	mmHg := reading.MmHg
	e.journal.Append(model.InterventionETCO2Reading, reading.Display, &mmHg)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// ChangeCPRRatio records a compression-to-ventilation ratio change.
func (e *Engine) ChangeCPRRatio(ratio model.CPRRatio) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}
	if !ratio.Valid() {
		return View{}, model.Reject(model.ErrInvalidArgument, fmt.Sprintf("unknown cpr ratio %q", ratio))
	}
	e.sess.CPRRatio = ratio
	e.journal.Append(model.InterventionCPRRatioChange, string(ratio), nil)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}

// ActivateBradyTachy stamps the start of the bradycardia/tachycardia
// workflow used by the second-line drug tables.
func (e *Engine) ActivateBradyTachy() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.notEndedLocked(); err != nil {
		return View{}, err
	}

	now := e.clk.Now()
	e.sess.BradyTachyStartTime = &now
	e.journal.Append(model.InterventionBradyTachy, "brady/tachy workflow activated", nil)
	e.persistLocked()
	return e.viewLocked(now), nil
}

// UpdatePostROSC replaces the post-ROSC checklist and vitals. Valid only
// after ROSC has been achieved.
func (e *Engine) UpdatePostROSC(list model.PostROSCChecklist, vitals model.PostROSCVitals) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess.Phase != model.PhasePostROSC {
		return View{}, model.Reject(model.ErrWrongPhase, "post-rosc care requires rosc to be achieved")
	}
	e.sess.PostROSCChecklist = list
	e.sess.PostROSCVitals = vitals
	e.journal.Append(model.InterventionChecklistToggle, "post_rosc", nil)
	e.persistLocked()
	return e.viewLocked(e.clk.Now()), nil
}
