package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuantity is returned for negative or non-numeric quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrLineOutOfRange is returned when a 1-based cart line does not exist.
	ErrLineOutOfRange = errors.New("line out of range")
	// ErrVariantUnavailable is returned when the requested quantity exceeds stock.
	ErrVariantUnavailable = errors.New("variant unavailable")
	// ErrInvalidProduct marks product payloads missing required fields.
	ErrInvalidProduct = errors.New("invalid product")
)
