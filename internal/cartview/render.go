package cartview

import (
	"fmt"
	"strconv"
)

// FormatItemCount zero-pads counts below ten to two digits.
func FormatItemCount(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// FreeShippingProgress reports how far total is toward threshold as a
// percentage with two decimals, capped at 100. reached is true once the
// threshold is met or when no threshold is configured.
func FreeShippingProgress(total, threshold int64) (percent string, reached bool) {
	if threshold <= 0 || total >= threshold {
		return "100.00", true
	}
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%.2f", float64(total)/float64(threshold)*100), false
}
