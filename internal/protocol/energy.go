package protocol

import (
	"math"

	"github.com/jmorken/codeclock/internal/model"
)

// TachycardiaSubtype classifies an unstable tachycardia for synchronized
// cardioversion energy selection.
type TachycardiaSubtype string

const (
	TachyAfibFlutter   TachycardiaSubtype = "afib_aflutter"
	TachyNarrowOrMono  TachycardiaSubtype = "narrow_or_monomorphic_vt"
	TachyPolymorphicVT TachycardiaSubtype = "polymorphic_vt"
)

// ShockEnergy returns the defibrillation energy for the given shock
// sequence number. Adults use the configured energy clamped to 360 J,
// constant across shocks. Pediatric patients escalate per shock:
// 2 J/kg, then 4 J/kg, then +2 J/kg per shock capped at 10 J/kg, never
// above the adult ceiling.
func ShockEnergy(mode model.PathwayMode, shockStep int, configuredJoules float64, weightKg *float64) model.DoseDescriptor {
	if mode == model.PathwayAdult {
		return fixedDose(math.Min(configuredJoules, MaxAdultEnergy), "J")
	}
	perKg := 2.0
	if shockStep >= 1 {
		perKg = math.Min(4+2*float64(shockStep-1), 10)
	}
	joules := math.Min(round2(perKg**weightKg), MaxAdultEnergy)
	return fixedDose(joules, "J")
}

// CardioversionEnergy returns the synchronized cardioversion energy for
// an unstable tachycardia. Polymorphic VT deliberately returns a nil
// value: synchronized cardioversion is contraindicated and the display
// string is the clinical instruction. Callers must not coerce it to 0 J.
func CardioversionEnergy(subtype TachycardiaSubtype) model.DoseDescriptor {
	switch subtype {
	case TachyAfibFlutter:
		return fixedDose(200, "J")
	case TachyNarrowOrMono:
		return fixedDose(100, "J")
	default:
		return rangeDose("Defibrillation (NOT synchronized)", "J")
	}
}
