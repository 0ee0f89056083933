package policy

import "errors"

// ErrInvalidPolicy marks a policy that failed validation.
var ErrInvalidPolicy = errors.New("invalid policy")
