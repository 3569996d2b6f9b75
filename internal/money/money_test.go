package money

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name     string
		cents    int64
		template string
		want     string
	}{
		{"amount", 123456, "{{amount}}", "1,234.56"},
		{"amount with symbol", 1999, "${{amount}}", "$19.99"},
		{"no decimals", 100, "{{amount_no_decimals}}", "1"},
		{"no decimals rounds half up", 150, "{{amount_no_decimals}}", "2"},
		{"space separator", 123456789, "{{ amount_with_space_separator }} kr", "1 234 567.89 kr"},
		{"comma separator", 12345600, "{{amount_no_decimals_with_comma_separator}}", "123,456"},
		{"space no decimals", 12345600, "€{{amount_no_decimals_with_space_separator}}", "€123 456"},
		{"zero", 0, "{{amount}}", "0.00"},
		{"small", 5, "{{amount}}", "0.05"},
		{"negative", -123456, "{{amount}}", "-1,234.56"},
		{"exact thousand", 100000, "{{amount}}", "1,000.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Format(tc.cents, tc.template)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatString(t *testing.T) {
	got, err := FormatString("12.30", "{{amount}}")
	require.NoError(t, err)
	assert.Equal(t, "12.30", got)

	got, err = FormatString("123456", "{{amount}}")
	require.NoError(t, err)
	assert.Equal(t, "1,234.56", got)

	got, err = FormatString("abc", "${{amount}}")
	require.NoError(t, err)
	assert.Equal(t, "$0", got)
}

func TestFormatTemplateErrors(t *testing.T) {
	_, err := Format(100, "no placeholder")
	assert.True(t, errors.Is(err, ErrNoPlaceholder))

	_, err = Format(100, "{{amount_in_words}}")
	assert.True(t, errors.Is(err, ErrUnknownPlaceholder))
}

func TestFormatterDefaults(t *testing.T) {
	f, err := NewFormatter("")
	require.NoError(t, err)
	assert.Equal(t, "$10.00", f.Format(1000))

	_, err = NewFormatter("{{nope}}")
	require.Error(t, err)
}
