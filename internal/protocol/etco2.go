package protocol

import (
	"math"
	"strconv"
	"strings"

	"github.com/jmorken/codeclock/internal/model"
)

type ETCO2Unit string

const (
	ETCO2MmHg ETCO2Unit = "mmhg"
	ETCO2KPa  ETCO2Unit = "kpa"
)

// KPaToMmHg is the conversion factor to the canonical unit.
const KPaToMmHg = 7.50062

// ETCO2Reading is a validated capnography entry. MmHg is the canonical
// value used by downstream checks regardless of the entry unit.
type ETCO2Reading struct {
	Entered float64
	Unit    ETCO2Unit
	MmHg    float64
	Display string
}

// ParseETCO2 validates a user-entered ETCO2 reading. mmHg entries must be
// whole numbers in [0, 99]. kPa entries are normalized to one decimal
// place before conversion to canonical mmHg.
func ParseETCO2(raw string, unit ETCO2Unit) (ETCO2Reading, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ETCO2Reading{}, model.Reject(model.ErrInvalidReading, "etco2 reading is required")
	}
	switch unit {
	case ETCO2MmHg:
		n, err := strconv.Atoi(text)
		if err != nil {
			return ETCO2Reading{}, model.Reject(model.ErrInvalidReading, "mmHg readings must be whole numbers")
		}
		if n < 0 || n > 99 {
			return ETCO2Reading{}, model.Reject(model.ErrInvalidReading, "mmHg readings must be between 0 and 99")
		}
		v := float64(n)
		return ETCO2Reading{
			Entered: v,
			Unit:    ETCO2MmHg,
			MmHg:    v,
			Display: formatDose(v, "mmHg"),
		}, nil
	case ETCO2KPa:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ETCO2Reading{}, model.Reject(model.ErrInvalidReading, "kPa readings must be numeric")
		}
		if v < 0 || v > 14 {
			return ETCO2Reading{}, model.Reject(model.ErrInvalidReading, "kPa readings must be between 0 and 14")
		}
		kpa := math.Round(v*10) / 10
		return ETCO2Reading{
			Entered: kpa,
			Unit:    ETCO2KPa,
			MmHg:    math.Round(kpa*KPaToMmHg*10000) / 10000,
			Display: formatDose(kpa, "kPa"),
		}, nil
	default:
		return ETCO2Reading{}, model.Reject(model.ErrInvalidArgument, "unknown etco2 unit")
	}
}
