package model

import "errors"

// ErrInvalidInput is returned when a computation receives arguments outside
// its domain: empty or negative distributions, non-positive contracts,
// out-of-range risk tolerance or a zero cost base in comparisons.
var ErrInvalidInput = errors.New("invalid input")
