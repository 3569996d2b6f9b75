package cartview

import (
	"strconv"
	"strings"
	"unicode"
)

// Stepper bounds quantity controls. Max is the per-line inventory ceiling;
// zero means unbounded. These checks are local input bounds, not cart mutations.
type Stepper struct {
	Max int
}

// Increment returns qty+1, or qty and false when the ceiling is reached.
func (s Stepper) Increment(qty int) (int, bool) {
	if s.Max > 0 && qty >= s.Max {
		return qty, false
	}
	return qty + 1, true
}

// Decrement returns qty-1 floored at 1. Removal is a separate action.
func (s Stepper) Decrement(qty int) int {
	qty--
	if qty < 1 {
		return 1
	}
	return qty
}

// Clamp bounds typed input to [1, Max].
func (s Stepper) Clamp(qty int) int {
	if s.Max > 0 && qty > s.Max {
		return s.Max
	}
	if qty < 1 {
		return 1
	}
	return qty
}

// ParseQuantity reads a quantity control's text, ignoring non-digits.
// Text without digits yields 1.
func ParseQuantity(raw string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 1
	}
	return n
}
