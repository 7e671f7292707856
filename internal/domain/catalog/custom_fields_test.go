//go:build unit

package catalog_test

import (
	"testing"

	"bookingbot-engine/internal/domain/catalog"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 { return &f }

func intakeSchema() []catalog.CustomField {
	return []catalog.CustomField{
		{Key: "style", Label: "Style", Kind: catalog.FieldDropdown, Required: true, Options: []string{"braids", "locs", "weave"}},
		{Key: "guests", Label: "Guests", Kind: catalog.FieldNumber, Min: floatPtr(0), Max: floatPtr(5)},
		{Key: "notes", Label: "Notes", Kind: catalog.FieldText},
	}
}

func TestCustomFieldValidate(t *testing.T) {
	cases := []struct {
		name  string
		field catalog.CustomField
		errIs error
	}{
		{name: "text field", field: catalog.CustomField{Key: "notes", Kind: catalog.FieldText}},
		{name: "empty key", field: catalog.CustomField{Key: "  ", Kind: catalog.FieldText}, errIs: catalog.ErrEmptyFieldKey},
		{name: "unknown kind", field: catalog.CustomField{Key: "x", Kind: "checkbox"}, errIs: catalog.ErrInvalidFieldKind},
		{name: "dropdown without options", field: catalog.CustomField{Key: "style", Kind: catalog.FieldDropdown}, errIs: catalog.ErrDropdownNeedsOption},
		{name: "dropdown with options", field: catalog.CustomField{Key: "style", Kind: catalog.FieldDropdown, Options: []string{"a"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.field.Validate()
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFieldValues(t *testing.T) {
	schema := intakeSchema()

	cases := []struct {
		name   string
		values map[string]any
		errIs  error
	}{
		{name: "all valid", values: map[string]any{"style": "braids", "guests": 2, "notes": "first visit"}},
		{name: "optional fields omitted", values: map[string]any{"style": "locs"}},
		{name: "json float for number", values: map[string]any{"style": "weave", "guests": float64(3)}},
		{name: "unknown key", values: map[string]any{"style": "braids", "color": "red"}, errIs: catalog.ErrFieldNotInSchema},
		{name: "required missing", values: map[string]any{"notes": "hello"}, errIs: catalog.ErrRequiredFieldMissing},
		{name: "nil values still require required fields", values: nil, errIs: catalog.ErrRequiredFieldMissing},
		{name: "dropdown value outside options", values: map[string]any{"style": "perm"}, errIs: catalog.ErrOptionNotAllowed},
		{name: "dropdown value wrong type", values: map[string]any{"style": 4}, errIs: catalog.ErrFieldTypeMismatch},
		{name: "number below min", values: map[string]any{"style": "braids", "guests": -1}, errIs: catalog.ErrNumberOutOfRange},
		{name: "number above max", values: map[string]any{"style": "braids", "guests": 9}, errIs: catalog.ErrNumberOutOfRange},
		{name: "number wrong type", values: map[string]any{"style": "braids", "guests": "two"}, errIs: catalog.ErrFieldTypeMismatch},
		{name: "text wrong type", values: map[string]any{"style": "braids", "notes": 12}, errIs: catalog.ErrFieldTypeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := catalog.ValidateFieldValues(schema, tc.values)
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFieldValuesEmptySchema(t *testing.T) {
	assert.NoError(t, catalog.ValidateFieldValues(nil, nil))
	assert.ErrorIs(t,
		catalog.ValidateFieldValues(nil, map[string]any{"anything": 1}),
		catalog.ErrFieldNotInSchema,
	)
}
