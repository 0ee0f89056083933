package config

import "errors"

var (
	// ErrInvalidConfig marks a loaded configuration the engine cannot run
	// with: a missing database url, non-positive limits or a policy whose
	// weights or curves fail validation.
	ErrInvalidConfig = errors.New("invalid credit engine config")
	// ErrLoadConfig marks a CREDIT_CONFIG file or CREDIT_ environment layer
	// that could not be read or parsed.
	ErrLoadConfig = errors.New("load credit engine config")
)
