package emission

import (
	"strconv"
	"strings"
)

// Input field names used by the daily calculator form.
const (
	FieldDate     = "date"
	FieldDistance = "distance"
	FieldMode     = "mode"
	FieldKWh      = "kwh"
	FieldMeals    = "meals"
	FieldDiet     = "diet"
)

// Entry is one day of user activity submitted for computation.
type Entry struct {
	Date     string  `json:"date,omitempty"`
	Distance float64 `json:"distance"`
	Mode     string  `json:"mode"`
	KWh      float64 `json:"kwh"`
	Meals    int     `json:"meals"`
	Diet     string  `json:"diet"`
}

// Result is the backend's carbon-equivalent breakdown, in kg CO2.
type Result struct {
	TransportEm float64 `json:"transport_em"`
	EnergyEm    float64 `json:"energy_em"`
	DietEm      float64 `json:"diet_em"`
	Total       float64 `json:"total"`
}

// HistoryEntry is a stored day: the raw inputs plus their result.
// Meals is decoded as a number because the backend stores it as REAL.
type HistoryEntry struct {
	Date     string  `json:"date"`
	Distance float64 `json:"distance"`
	Mode     string  `json:"mode"`
	KWh      float64 `json:"kwh"`
	Meals    float64 `json:"meals"`
	Diet     string  `json:"diet"`
	Result
}

// Point is one (date, total) pair of the forecast's history.
type Point struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// Forecast is either a notice (Message set) or a prediction with the
// history used to derive it.
type Forecast struct {
	Message    string   `json:"message,omitempty"`
	Forecast   *float64 `json:"forecast"`
	Historical []Point  `json:"historical"`
}

// Insufficient reports whether the backend declined to predict.
func (f Forecast) Insufficient() bool {
	return f.Message != ""
}

// ParseEntry reads an Entry from form fields. Numbers that are blank or
// unparsable are sent as zero, matching the backend's own coercion.
func ParseEntry(fields map[string]string) Entry {
	return Entry{
		Date:     strings.TrimSpace(fields[FieldDate]),
		Distance: parseFloat(fields[FieldDistance]),
		Mode:     strings.TrimSpace(fields[FieldMode]),
		KWh:      parseFloat(fields[FieldKWh]),
		Meals:    int(parseFloat(fields[FieldMeals])),
		Diet:     strings.TrimSpace(fields[FieldDiet]),
	}
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatNumber renders a value the way the page shows numbers: no trailing
// zeros, no exponent for everyday magnitudes.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
