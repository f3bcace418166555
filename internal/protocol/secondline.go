package protocol

import "github.com/jmorken/codeclock/internal/model"

// Second-line bradycardia/tachycardia drug tables. Several sub-doses are
// deliberate range doses with a nil value; the display string is the
// order as written in the protocol.

func DiltiazemDose() model.CompoundDose {
	return model.CompoundDose{
		Drug: "diltiazem",
		Parts: []model.SubDose{
			{Name: "loading", Dose: rangeDose("15-20 mg IV over 2 min", "mg")},
			{Name: "maintenance", Dose: rangeDose("5-15 mg/hr infusion", "mg/hr")},
		},
	}
}

func VerapamilDose() model.CompoundDose {
	return model.CompoundDose{
		Drug: "verapamil",
		Parts: []model.SubDose{
			{Name: "initial", Dose: rangeDose("2.5-5 mg IV over 2 min", "mg")},
			{Name: "repeat", Dose: rangeDose("5-10 mg after 15-30 min", "mg")},
		},
	}
}

func MetoprololDose() model.CompoundDose {
	return model.CompoundDose{
		Drug: "metoprolol",
		Parts: []model.SubDose{
			{Name: "initial", Dose: fixedDose(5, "mg")},
			{Name: "repeat", Dose: rangeDose("5 mg every 10 min, max 3 doses", "mg")},
		},
	}
}

func EsmololDose() model.CompoundDose {
	return model.CompoundDose{
		Drug: "esmolol",
		Parts: []model.SubDose{
			{Name: "loading", Dose: rangeDose("500 mcg/kg over 1 min", "mcg/kg")},
			{Name: "maintenance", Dose: rangeDose("50-300 mcg/kg/min infusion", "mcg/kg/min")},
		},
	}
}

func AtropineDose() model.CompoundDose {
	return model.CompoundDose{
		Drug: "atropine",
		Parts: []model.SubDose{
			{Name: "initial", Dose: fixedDose(1, "mg")},
			{Name: "repeat", Dose: rangeDose("1 mg every 3-5 min, max 3 mg", "mg")},
		},
	}
}

// AdenosineDose is 6 mg for the first dose, 12 mg for repeats.
func AdenosineDose(doseStep int) model.DoseDescriptor {
	if doseStep == 0 {
		return fixedDose(6, "mg")
	}
	return fixedDose(12, "mg")
}
