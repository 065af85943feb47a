package tifos

import "errors"

var (
	// ErrTifoNotFound is returned when no tifo matches the id or names
	ErrTifoNotFound = errors.New("tifo not found")
	// ErrSeatNotFound is returned for an in-range place with no choreography
	ErrSeatNotFound = errors.New("no choreography for place")
	// ErrInvalidTifo is returned for create requests failing validation
	ErrInvalidTifo = errors.New("invalid tifo")
	// ErrInvalidPlace is returned for a place outside 1..places
	ErrInvalidPlace = errors.New("invalid place")
	// ErrCatalogUnavailable wraps storage failures other than a missing row
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
