package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrNotFound           = errors.New("resource not found")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Input contract violations (fatal, detected before simulation starts)
	ErrMissingColumns    = errors.New("feature table is missing required columns")
	ErrInsufficientData  = errors.New("not enough distinct trading days to simulate")
	ErrMalformedFeatures = errors.New("malformed feature table row")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
