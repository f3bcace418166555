package model

// Checklists are closed structs: every flag is an enumerated field, no
// arbitrary key sets. Toggling a flag journals an audit record but never
// changes the session phase.

// HsAndTs is the reversible-cause differential (5 Hs and 5 Ts).
type HsAndTs struct {
	Hypovolemia         bool `json:"hypovolemia"`
	Hypoxia             bool `json:"hypoxia"`
	HydrogenIon         bool `json:"hydrogen_ion"`
	HypoHyperkalemia    bool `json:"hypo_hyperkalemia"`
	Hypothermia         bool `json:"hypothermia"`
	TensionPneumothorax bool `json:"tension_pneumothorax"`
	Tamponade           bool `json:"tamponade"`
	Toxins              bool `json:"toxins"`
	ThrombosisPulmonary bool `json:"thrombosis_pulmonary"`
	ThrombosisCoronary  bool `json:"thrombosis_coronary"`
}

// PregnancyCauses is the maternal arrest differential.
type PregnancyCauses struct {
	Bleeding                bool `json:"bleeding"`
	Embolism                bool `json:"embolism"`
	AnestheticComplications bool `json:"anesthetic_complications"`
	UterineAtony            bool `json:"uterine_atony"`
	CardiacDisease          bool `json:"cardiac_disease"`
	Hypertension            bool `json:"hypertension"`
	PlacentalAbruption      bool `json:"placental_abruption"`
	Sepsis                  bool `json:"sepsis"`
}

// PregnancyInterventions are the maternal arrest actions. FundusAtUmbilicus
// gates delivery-deadline eligibility; toggling it off re-arms the
// delivery alert.
type PregnancyInterventions struct {
	LeftUterineDisplacement bool `json:"left_uterine_displacement"`
	EarlyAdvancedAirway     bool `json:"early_advanced_airway"`
	IVAccessAboveDiaphragm  bool `json:"iv_access_above_diaphragm"`
	RemoveFetalMonitors     bool `json:"remove_fetal_monitors"`
	PrepPerimortemCesarean  bool `json:"prep_perimortem_cesarean"`
	NotifyOBAndNeonatal     bool `json:"notify_ob_and_neonatal"`
	FundusAtUmbilicus       bool `json:"fundus_at_umbilicus"`
}

// SpecialCircumstances gate the detailed condition guidance shown by the
// presentation layer; the core only tracks activation.
type SpecialCircumstances struct {
	Anaphylaxis       bool `json:"anaphylaxis"`
	Asthma            bool `json:"asthma"`
	Hyperkalemia      bool `json:"hyperkalemia"`
	Hypothermia       bool `json:"hypothermia"`
	OpioidOverdose    bool `json:"opioid_overdose"`
	LocalAnesthetic   bool `json:"local_anesthetic"`
	PulmonaryEmbolism bool `json:"pulmonary_embolism"`
}

type PostROSCChecklist struct {
	AirwaySecured     bool `json:"airway_secured"`
	VentilationTitred bool `json:"ventilation_titrated"`
	BloodPressure     bool `json:"blood_pressure_supported"`
	TwelveLeadECG     bool `json:"twelve_lead_ecg"`
	TargetedTemp      bool `json:"targeted_temperature"`
	TreatCauses       bool `json:"treat_causes"`
}

type PostROSCVitals struct {
	SystolicBP  *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP *float64 `json:"diastolic_bp,omitempty"`
	HeartRate   *float64 `json:"heart_rate,omitempty"`
	SpO2        *float64 `json:"spo2,omitempty"`
	ETCO2MmHg   *float64 `json:"etco2_mmhg,omitempty"`
}
