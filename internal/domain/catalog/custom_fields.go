package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidFieldKind     = errors.New("invalid custom field kind")
	ErrEmptyFieldKey        = errors.New("custom field key cannot be empty")
	ErrDropdownNeedsOption  = errors.New("dropdown field requires at least one option")
	ErrFieldNotInSchema     = errors.New("value supplied for unknown custom field")
	ErrRequiredFieldMissing = errors.New("required custom field missing")
	ErrFieldTypeMismatch    = errors.New("custom field value has wrong type")
	ErrOptionNotAllowed     = errors.New("value is not one of the field's options")
	ErrNumberOutOfRange     = errors.New("number field value out of range")
)

// FieldKind is the tag of the custom-field variant. Tenants configure
// per-service intake forms from these kinds only, keeping values
// schema-validated rather than free-form.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldNumber   FieldKind = "number"
	FieldDropdown FieldKind = "dropdown"
)

func (k FieldKind) IsValid() bool {
	switch k {
	case FieldText, FieldNumber, FieldDropdown:
		return true
	default:
		return false
	}
}

// CustomField is one entry of a service's intake schema. Options apply to
// dropdown fields; Min/Max apply to number fields.
type CustomField struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	Min      *float64  `json:"min,omitempty"`
	Max      *float64  `json:"max,omitempty"`
}

func (f CustomField) Validate() error {
	if strings.TrimSpace(f.Key) == "" {
		return ErrEmptyFieldKey
	}
	if !f.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFieldKind, f.Kind)
	}
	if f.Kind == FieldDropdown && len(f.Options) == 0 {
		return ErrDropdownNeedsOption
	}
	return nil
}

// ValidateFieldValues checks submitted values against a field schema.
// Unknown keys are rejected; missing required fields are rejected.
func ValidateFieldValues(fields []CustomField, values map[string]any) error {
	byKey := make(map[string]CustomField, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f
	}

	for key := range values {
		if _, ok := byKey[key]; !ok {
			return fmt.Errorf("%w: %q", ErrFieldNotInSchema, key)
		}
	}

	for _, f := range fields {
		value, present := values[f.Key]
		if !present {
			if f.Required {
				return fmt.Errorf("%w: %q", ErrRequiredFieldMissing, f.Key)
			}
			continue
		}
		if err := f.checkValue(value); err != nil {
			return err
		}
	}
	return nil
}

func (f CustomField) checkValue(value any) error {
	switch f.Kind {
	case FieldText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %q expects text", ErrFieldTypeMismatch, f.Key)
		}
	case FieldNumber:
		num, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: %q expects a number", ErrFieldTypeMismatch, f.Key)
		}
		if f.Min != nil && num < *f.Min {
			return fmt.Errorf("%w: %q below %v", ErrNumberOutOfRange, f.Key, *f.Min)
		}
		if f.Max != nil && num > *f.Max {
			return fmt.Errorf("%w: %q above %v", ErrNumberOutOfRange, f.Key, *f.Max)
		}
	case FieldDropdown:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %q expects an option", ErrFieldTypeMismatch, f.Key)
		}
		for _, opt := range f.Options {
			if opt == s {
				return nil
			}
		}
		return fmt.Errorf("%w: %q=%q", ErrOptionNotAllowed, f.Key, s)
	}
	return nil
}

// toFloat accepts the numeric shapes JSON decoding produces.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
