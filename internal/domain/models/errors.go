package models

import "errors"

var (
	// ErrMissingParameter is returned when a required query argument is absent.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrZeroAnchor is returned when a series cannot be rebased because its first value is zero.
	ErrZeroAnchor = errors.New("rebase anchor is zero")
	// ErrZeroReferenceVolatility is returned when the composite reference has no ROC dispersion.
	ErrZeroReferenceVolatility = errors.New("reference volatility is zero")
	ErrUnknownBenchmark        = errors.New("unknown benchmark")
	ErrUnknownCategory         = errors.New("unknown category")
	ErrMalformedDate           = errors.New("malformed date")
)
