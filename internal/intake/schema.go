// Package intake defines the assessment questionnaire: the fixed set of
// health parameters, their constraints, and the form that collects and
// validates answers before submission.
package intake

import "fmt"

// Group organizes fields into the questionnaire's four sections.
type Group string

const (
	GroupPersonal  Group = "Personal & Biometric"
	GroupLifestyle Group = "Lifestyle"
	GroupVitals    Group = "Vitals & Labs"
	GroupMedical   Group = "Medical & Environmental"
)

// Kind is the field's value type.
type Kind int

const (
	KindNumber Kind = iota
	KindChoice
)

// Field describes one questionnaire parameter.
type Field struct {
	Name    string
	Label   string
	Group   Group
	Kind    Kind
	Min     float64 // numeric fields
	Max     float64
	Options []string // choice fields
}

var yesNo = []string{"Yes", "No"}

// States is the fixed set of selectable states.
var States = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar",
	"Chhattisgarh", "Goa", "Gujarat", "Haryana", "Himachal Pradesh",
	"Jammu and Kashmir", "Jharkhand", "Karnataka", "Kerala",
	"Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram",
	"Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu",
	"Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
	"Andaman and Nicobar Islands", "Chandigarh",
	"Dadra and Nagar Haveli and Daman and Diu", "Delhi", "Lakshadweep",
	"Puducherry", "Ladakh",
}

// Fields is the questionnaire schema in display order. The parameter
// names match the prediction service's feature vocabulary exactly, so
// payloads pass through to the model without renaming.
var Fields = []Field{
	{Name: "age", Label: "Age", Group: GroupPersonal, Kind: KindNumber, Min: 18, Max: 120},
	{Name: "gender_Male", Label: "Gender", Group: GroupPersonal, Kind: KindChoice, Options: []string{"Male", "Female"}},
	{Name: "obesity", Label: "Obesity", Group: GroupPersonal, Kind: KindChoice, Options: yesNo},
	{Name: "state_name_encoded", Label: "State", Group: GroupPersonal, Kind: KindChoice, Options: States},

	{Name: "smoking", Label: "Smoking", Group: GroupLifestyle, Kind: KindChoice, Options: yesNo},
	{Name: "alcohol_consumption", Label: "Alcohol Consumption", Group: GroupLifestyle, Kind: KindChoice, Options: yesNo},
	{Name: "physical_activity", Label: "Physical Activity (Hours/Week)", Group: GroupLifestyle, Kind: KindNumber, Min: 0, Max: 168},
	{Name: "diet_score", Label: "Diet Score (1-10)", Group: GroupLifestyle, Kind: KindNumber, Min: 1, Max: 10},
	{Name: "stress_level", Label: "Stress Level (1-10)", Group: GroupLifestyle, Kind: KindNumber, Min: 1, Max: 10},

	{Name: "cholesterol_level", Label: "Cholesterol Level (mg/dL)", Group: GroupVitals, Kind: KindNumber, Min: 100, Max: 600},
	{Name: "triglyceride_level", Label: "Triglyceride Level (mg/dL)", Group: GroupVitals, Kind: KindNumber, Min: 30, Max: 1000},
	{Name: "ldl_level", Label: "LDL Level (mg/dL)", Group: GroupVitals, Kind: KindNumber, Min: 40, Max: 300},
	{Name: "hdl_level", Label: "HDL Level (mg/dL)", Group: GroupVitals, Kind: KindNumber, Min: 20, Max: 100},
	{Name: "systolic_bp", Label: "Systolic BP (mmHg)", Group: GroupVitals, Kind: KindNumber, Min: 70, Max: 250},
	{Name: "diastolic_bp", Label: "Diastolic BP (mmHg)", Group: GroupVitals, Kind: KindNumber, Min: 40, Max: 150},

	{Name: "family_history", Label: "Family History of Heart Disease", Group: GroupMedical, Kind: KindChoice, Options: yesNo},
	{Name: "air_pollution_exposure", Label: "Air Pollution Exposure (1-10)", Group: GroupMedical, Kind: KindNumber, Min: 1, Max: 10},
	{Name: "healthcare_access", Label: "Healthcare Access", Group: GroupMedical, Kind: KindChoice, Options: yesNo},
	{Name: "emergency_response_time", Label: "Emergency Response Time (Minutes)", Group: GroupMedical, Kind: KindNumber, Min: 1, Max: 120},
	{Name: "health_insurance", Label: "Health Insurance", Group: GroupMedical, Kind: KindChoice, Options: yesNo},
	{Name: "annual_income", Label: "Annual Income", Group: GroupMedical, Kind: KindNumber, Min: 0, Max: 100000000},
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the schema entry for a parameter name.
func Lookup(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// Label maps a parameter name to its display label. Unknown names are
// returned unchanged so report views degrade gracefully.
func Label(name string) string {
	if f, ok := fieldsByName[name]; ok {
		return f.Label
	}
	return name
}

// ByGroup returns the schema entries of one section in display order.
func ByGroup(g Group) []Field {
	var out []Field
	for _, f := range Fields {
		if f.Group == g {
			out = append(out, f)
		}
	}
	return out
}

// Groups lists the questionnaire sections in display order.
func Groups() []Group {
	return []Group{GroupPersonal, GroupLifestyle, GroupVitals, GroupMedical}
}

func (f Field) rangeHint() string {
	return fmt.Sprintf("%s must be between %v and %v", f.Label, f.Min, f.Max)
}
