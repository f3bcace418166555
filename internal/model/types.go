package model

import "time"

// PathwayMode selects the protocol branch. Immutable after pathway selection.
type PathwayMode string

const (
	PathwayAdult     PathwayMode = "adult"
	PathwayPediatric PathwayMode = "pediatric"
)

func (m PathwayMode) Valid() bool {
	return m == PathwayAdult || m == PathwayPediatric
}

// Phase is the session state machine phase persisted with the session.
type Phase string

const (
	PhasePathwaySelection   Phase = "pathway_selection"
	PhaseCPRPendingRhythm   Phase = "cpr_pending_rhythm"
	PhaseActiveShockable    Phase = "active_shockable"
	PhaseActiveNonShockable Phase = "active_non_shockable"
	PhaseRhythmCheck        Phase = "rhythm_check"
	PhasePostROSC           Phase = "post_rosc"
	PhaseCodeEnded          Phase = "code_ended"
)

// Active reports whether CPR is ongoing and interventions may be recorded.
func (p Phase) Active() bool {
	switch p {
	case PhaseCPRPendingRhythm, PhaseActiveShockable, PhaseActiveNonShockable, PhaseRhythmCheck:
		return true
	}
	return false
}

func (p Phase) Terminal() bool {
	return p == PhaseCodeEnded
}

type Rhythm string

const (
	RhythmNone     Rhythm = ""
	RhythmVFPVT    Rhythm = "vf_pvt"
	RhythmAsystole Rhythm = "asystole"
	RhythmPEA      Rhythm = "pea"
)

func (r Rhythm) Shockable() bool {
	return r == RhythmVFPVT
}

func (r Rhythm) Valid() bool {
	switch r {
	case RhythmVFPVT, RhythmAsystole, RhythmPEA:
		return true
	}
	return false
}

type AirwayStatus string

const (
	AirwayAmbu AirwayStatus = "ambu"
	AirwaySGA  AirwayStatus = "sga"
	AirwayETT  AirwayStatus = "ett"
)

func (a AirwayStatus) Valid() bool {
	switch a {
	case AirwayAmbu, AirwaySGA, AirwayETT:
		return true
	}
	return false
}

type CPRRatio string

const (
	CPRRatio15to2 CPRRatio = "15:2"
	CPRRatio30to2 CPRRatio = "30:2"
)

func (r CPRRatio) Valid() bool {
	return r == CPRRatio15to2 || r == CPRRatio30to2
}

// Outcome records how a terminated code ended.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeDeceased    Outcome = "deceased"
	OutcomeTransferred Outcome = "transferred"
)

func (o Outcome) Valid() bool {
	return o == OutcomeDeceased || o == OutcomeTransferred
}

type InterventionType string

const (
	InterventionShock           InterventionType = "shock"
	InterventionEpinephrine     InterventionType = "epinephrine"
	InterventionAmiodarone      InterventionType = "amiodarone"
	InterventionLidocaine       InterventionType = "lidocaine"
	InterventionRhythmCheck     InterventionType = "rhythm_check"
	InterventionROSC            InterventionType = "rosc"
	InterventionAirwayChange    InterventionType = "airway_change"
	InterventionETCO2Reading    InterventionType = "etco2_reading"
	InterventionChecklistToggle InterventionType = "checklist_toggle"
	InterventionCPRRatioChange  InterventionType = "cpr_ratio_change"
	InterventionWeightSet       InterventionType = "weight_set"
	InterventionPregnancy       InterventionType = "pregnancy_activated"
	InterventionBradyTachy      InterventionType = "brady_tachy_activated"
	InterventionTermination     InterventionType = "termination"
)

// InterventionRecord is immutable once appended to the journal.
type InterventionRecord struct {
	ID        string
	Timestamp time.Time
	Type      InterventionType
	Details   string
	Value     *float64
	// DoseStep is the 0-based sequence number within Type, used to
	// recompute doses when a report is regenerated.
	DoseStep int
}

// DoseDescriptor is a computed dose. Value is nil exactly when the
// protocol specifies a range or a qualitative instruction instead of a
// single number; callers must branch on Value == nil, never coerce to 0.
type DoseDescriptor struct {
	Value   *float64
	Display string
	Unit    string
}

// SubDose is one named component of a compound drug order
// (loading/maintenance, initial/repeat).
type SubDose struct {
	Name string
	Dose DoseDescriptor
}

type CompoundDose struct {
	Drug  string
	Parts []SubDose
}

// Session is the root aggregate. One mutable session per running
// instance. Counters are derived from the journal, never stored here.
type Session struct {
	ID            string
	PathwayMode   PathwayMode
	Phase         Phase
	CurrentRhythm Rhythm

	StartTime           *time.Time
	EndTime             *time.Time
	CPRCycleStartTime   *time.Time
	LastEpinephrineTime *time.Time
	LastAmiodaroneTime  *time.Time
	LastLidocaineTime   *time.Time
	ROSCTime            *time.Time
	BradyTachyStartTime *time.Time
	PregnancyStartTime  *time.Time
	ECMOEligibleTime    *time.Time

	PatientWeightKg *float64

	HsAndTs                HsAndTs
	PregnancyActive        bool
	PregnancyCauses        PregnancyCauses
	PregnancyInterventions PregnancyInterventions
	SpecialCircumstances   SpecialCircumstances
	PostROSCChecklist      PostROSCChecklist
	PostROSCVitals         PostROSCVitals

	AirwayStatus AirwayStatus
	CPRRatio     CPRRatio
	Outcome      Outcome
}

// Rejection codes returned by the command API.
const (
	ErrWrongPhase        = "E_WRONG_PHASE"
	ErrSessionEnded      = "E_SESSION_ENDED"
	ErrPathwayLocked     = "E_PATHWAY_LOCKED"
	ErrInvalidArgument   = "E_INVALID_ARGUMENT"
	ErrWeightRequired    = "E_WEIGHT_REQUIRED"
	ErrWeightOutOfRange  = "E_WEIGHT_OUT_OF_RANGE"
	ErrEpiRefractory     = "E_EPI_REFRACTORY"
	ErrRhythmNotShock    = "E_RHYTHM_NOT_SHOCKABLE"
	ErrDoseCapReached    = "E_DOSE_CAP_REACHED"
	ErrShockOutsideCheck = "E_SHOCK_OUTSIDE_CHECK_WINDOW"
	ErrCheckNotDue       = "E_RHYTHM_CHECK_NOT_DUE"
	ErrPregnancyLocked   = "E_PREGNANCY_LOCKED"
	ErrPregnancyInactive = "E_PREGNANCY_INACTIVE"
	ErrInvalidReading    = "E_INVALID_READING"
)

// Rejection is a synchronously rejected command. The session state is
// unchanged and no journal entry was written.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return r.Code + ": " + r.Message
}

func Reject(code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}
