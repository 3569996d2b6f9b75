package domain

import "strconv"

// FormatID renders a storefront numeric id.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses a storefront numeric id.
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
