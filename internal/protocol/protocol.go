// Package protocol holds the fixed, protocol-derived dose and timing
// tables. Everything here is a pure function of its inputs; callers are
// responsible for validating weight before asking for a pediatric dose.
package protocol

import "time"

const (
	// CPRCycleDuration is the rhythm-check interval.
	CPRCycleDuration = 2 * time.Minute

	// DefaultEpinephrineInterval is the epinephrine refractory interval
	// when settings do not override it.
	DefaultEpinephrineInterval = 4 * time.Minute

	// PreShockAlertLead is the window before a rhythm check becomes due
	// in which the pre-shock alert fires.
	PreShockAlertLead = 15 * time.Second

	// PostCheckShockWindow is how long after a rhythm selection a shock
	// for the just-analyzed rhythm may still be recorded.
	PostCheckShockWindow = 60 * time.Second

	// DeliveryDeadline is the perimortem cesarean target from CPR start.
	DeliveryDeadline = 5 * time.Minute

	// AmiodaroneMaxDoses caps amiodarone at 300 mg + 150 mg.
	AmiodaroneMaxDoses = 2

	// LidocaineMaxDoses is the 3 mg/kg aggregate ceiling expressed as a
	// dose count (initial plus two repeats).
	LidocaineMaxDoses = 3

	// MaxAdultEnergy is the defibrillator ceiling in joules.
	MaxAdultEnergy = 360

	// Weight bounds for pediatric dosing, in kg.
	MinWeightKg = 0.5
	MaxWeightKg = 150
)

// ValidWeight reports whether kg is inside the accepted pediatric range.
func ValidWeight(kg float64) bool {
	return kg >= MinWeightKg && kg <= MaxWeightKg
}
