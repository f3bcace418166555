package protocol

import (
	"fmt"
	"math"

	"github.com/jmorken/codeclock/internal/model"
)

func fixedDose(value float64, unit string) model.DoseDescriptor {
	return model.DoseDescriptor{
		Value:   &value,
		Display: formatDose(value, unit),
		Unit:    unit,
	}
}

func rangeDose(display, unit string) model.DoseDescriptor {
	return model.DoseDescriptor{Display: display, Unit: unit}
}

func formatDose(value float64, unit string) string {
	if value == math.Trunc(value) {
		return fmt.Sprintf("%d %s", int64(value), unit)
	}
	return fmt.Sprintf("%s %s", trimZeros(value), unit)
}

func trimZeros(value float64) string {
	s := fmt.Sprintf("%.2f", value)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EpinephrineDose is 1 mg for adults, 0.01 mg/kg (max 1 mg) for
// pediatric patients. weightKg must be non-nil and validated for the
// pediatric pathway; the eligibility layer blocks the action otherwise.
func EpinephrineDose(mode model.PathwayMode, weightKg *float64) model.DoseDescriptor {
	if mode == model.PathwayAdult {
		return fixedDose(1, "mg")
	}
	mg := math.Min(round2(0.01**weightKg), 1)
	return fixedDose(mg, "mg")
}

// AmiodaroneDose is 300 mg then 150 mg for adults; 5 mg/kg capped at the
// matching adult dose for pediatric patients.
func AmiodaroneDose(mode model.PathwayMode, doseStep int, weightKg *float64) model.DoseDescriptor {
	adult := 300.0
	if doseStep >= 1 {
		adult = 150
	}
	if mode == model.PathwayAdult {
		return fixedDose(adult, "mg")
	}
	mg := math.Min(round2(5**weightKg), adult)
	return fixedDose(mg, "mg")
}

// LidocaineDose is 100 mg then 50 mg for adults; 1 mg/kg then 0.5 mg/kg
// capped at the matching adult dose for pediatric patients.
func LidocaineDose(mode model.PathwayMode, doseStep int, weightKg *float64) model.DoseDescriptor {
	adult := 100.0
	perKg := 1.0
	if doseStep >= 1 {
		adult = 50
		perKg = 0.5
	}
	if mode == model.PathwayAdult {
		return fixedDose(adult, "mg")
	}
	mg := math.Min(round2(perKg**weightKg), adult)
	return fixedDose(mg, "mg")
}
