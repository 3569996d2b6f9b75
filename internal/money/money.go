// Package money formats integer minor-unit amounts with storefront money
// templates such as "${{amount}}" or "{{amount_with_space_separator}} kr".
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTemplate is used when a Formatter has no template configured.
const DefaultTemplate = "${{amount}}"

var (
	// ErrNoPlaceholder is returned for templates without a {{ ... }} token.
	ErrNoPlaceholder = errors.New("money: template has no placeholder")
	// ErrUnknownPlaceholder is returned for placeholder names outside the supported set.
	ErrUnknownPlaceholder = errors.New("money: unknown placeholder")
)

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

type style struct {
	precision int
	thousands string
	decimal   string
}

var styles = map[string]style{
	"amount":                                  {precision: 2, thousands: ",", decimal: "."},
	"amount_no_decimals":                      {precision: 0, thousands: ",", decimal: "."},
	"amount_with_space_separator":             {precision: 2, thousands: " ", decimal: "."},
	"amount_no_decimals_with_comma_separator": {precision: 0, thousands: ",", decimal: "."},
	"amount_no_decimals_with_space_separator": {precision: 0, thousands: " ", decimal: "."},
}

// Format renders cents into template.
func Format(cents int64, template string) (string, error) {
	return render(template, func(st style) string {
		return withDelimiters(cents, st)
	})
}

// FormatString renders a numeric string into template. A single "." is
// stripped first, so "12.34" is read as 1234 minor units. Input that is not
// numeric renders as "0".
func FormatString(raw string, template string) (string, error) {
	cleaned := strings.TrimSpace(strings.Replace(raw, ".", "", 1))
	return render(template, func(st style) string {
		if cleaned == "" {
			return withDelimiters(0, st)
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return "0"
		}
		if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			return withDelimiters(int64(f), st)
		}
		return groupFixed(strconv.FormatFloat(f/100, 'f', st.precision, 64), st)
	})
}

// Placeholder returns the placeholder name used by template.
func Placeholder(template string) (string, error) {
	m := placeholderRe.FindStringSubmatch(template)
	if m == nil {
		return "", ErrNoPlaceholder
	}
	if _, ok := styles[m[1]]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlaceholder, m[1])
	}
	return m[1], nil
}

func render(template string, value func(style) string) (string, error) {
	loc := placeholderRe.FindStringSubmatchIndex(template)
	if loc == nil {
		return "", ErrNoPlaceholder
	}
	name := template[loc[2]:loc[3]]
	st, ok := styles[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlaceholder, name)
	}
	return template[:loc[0]] + value(st) + template[loc[1]:], nil
}

// withDelimiters divides by 100, rounds half away from zero to the style's
// precision and groups the integer part.
func withDelimiters(cents int64, st style) string {
	neg := cents < 0
	abs := uint64(cents)
	if neg {
		abs = uint64(-cents)
	}
	var whole, frac uint64
	switch st.precision {
	case 0:
		whole = (abs + 50) / 100
	default:
		whole = abs / 100
		frac = abs % 100
	}
	out := group(strconv.FormatUint(whole, 10), st.thousands)
	if st.precision > 0 {
		out += st.decimal + fmt.Sprintf("%02d", frac)
	}
	if neg && (whole != 0 || frac != 0) {
		out = "-" + out
	}
	return out
}

func groupFixed(fixed string, st style) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(fixed, ".")
	out := sign + group(intPart, st.thousands)
	if hasFrac {
		out += st.decimal + fracPart
	}
	return out
}

func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Formatter binds a shop money template.
type Formatter struct {
	Template string
}

// NewFormatter returns a Formatter, validating the template up front.
func NewFormatter(template string) (*Formatter, error) {
	if template == "" {
		template = DefaultTemplate
	}
	if _, err := Placeholder(template); err != nil {
		return nil, err
	}
	return &Formatter{Template: template}, nil
}

// Format renders cents with the bound template. The template is validated by
// NewFormatter, so errors only surface for zero-value Formatters with bad templates.
func (f *Formatter) Format(cents int64) string {
	tmpl := f.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	out, err := Format(cents, tmpl)
	if err != nil {
		return strconv.FormatInt(cents, 10)
	}
	return out
}
