package intake

import (
	"fmt"
	"strconv"
)

// Form collects answers for one assessment. The zero value is not
// usable; create forms with NewForm.
type Form struct {
	values map[string]string
	errors map[string]string
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{
		values: make(map[string]string),
		errors: make(map[string]string),
	}
}

// Set records an answer. Editing a field clears its validation error so
// the user sees stale messages disappear as they correct input. Setting
// an unrecognized parameter is rejected.
func (f *Form) Set(name, value string) error {
	if _, ok := fieldsByName[name]; !ok {
		return fmt.Errorf("unknown assessment parameter %q", name)
	}
	f.values[name] = value
	delete(f.errors, name)
	return nil
}

// Get returns the current answer for a field.
func (f *Form) Get(name string) string {
	return f.values[name]
}

// Errors returns the per-field validation messages from the most recent
// Validate call, keyed by parameter name.
func (f *Form) Errors() map[string]string {
	return f.errors
}

// Validate checks every schema field and records a message for each
// violation. It reports whether the form is submittable.
func (f *Form) Validate() bool {
	f.errors = make(map[string]string)
	for _, field := range Fields {
		raw, ok := f.values[field.Name]
		if !ok || raw == "" {
			f.errors[field.Name] = fmt.Sprintf("%s is required", field.Label)
			continue
		}
		switch field.Kind {
		case KindNumber:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				f.errors[field.Name] = fmt.Sprintf("%s must be a number", field.Label)
				continue
			}
			if n < field.Min || n > field.Max {
				f.errors[field.Name] = field.rangeHint()
			}
		case KindChoice:
			if !contains(field.Options, raw) {
				f.errors[field.Name] = fmt.Sprintf("%s must be one of the listed options", field.Label)
			}
		}
	}
	return len(f.errors) == 0
}

// Payload returns the submission body. Only schema parameters are
// included; Set already rejects anything else, so this is a straight
// copy of the answers.
func (f *Form) Payload() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Prefill loads answers from a previous payload, silently skipping keys
// the schema no longer recognizes.
func (f *Form) Prefill(previous map[string]string) {
	for k, v := range previous {
		if _, ok := fieldsByName[k]; ok {
			f.values[k] = v
		}
	}
}

// Reset clears all answers and errors.
func (f *Form) Reset() {
	f.values = make(map[string]string)
	f.errors = make(map[string]string)
}

func contains(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}
