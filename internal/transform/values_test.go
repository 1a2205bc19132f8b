package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{true, "true"},
		{float64(42), "42"},
		{1.5, "1.5"},
		{float64(12345678901), "12345678901"},
		{json.Number("7"), "7"},
		{[]any{"a"}, `["a"]`},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, scalarString(tc.in), "scalarString(%#v)", tc.in)
	}
}

func TestIsCalendarDate(t *testing.T) {
	valid := []any{"2023-02-15", "2024-02-29", "1999-12-31"}
	invalid := []any{"", "2023-02-30", "2023-13-01", "2023-2-15", " 2023-02-15", 20230215.0, nil}
	for _, value := range valid {
		assert.Truef(t, isCalendarDate(value), "expected %#v to be a calendar date", value)
	}
	for _, value := range invalid {
		assert.Falsef(t, isCalendarDate(value), "expected %#v to be rejected", value)
	}
}

func TestTruthy(t *testing.T) {
	for value, want := range map[any]bool{
		true: true, false: false, "": false, "x": true, 0.0: false, 2.0: true,
	} {
		assert.Equalf(t, want, truthy(value), "truthy(%#v)", value)
	}
	assert.False(t, truthy(nil))
}
