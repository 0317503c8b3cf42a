package contracts

import "errors"

// ErrInvalidArgument marks caller mistakes: malformed parameters, thresholds
// that cancel each other out, patterns too short to segment. Fatal to the
// call, never swallowed.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrIllegalState is reserved for misuse-of-API detection on stateful
// objects. Nothing returns it yet; it is kept so callers can start matching
// on it before the checks land.
var ErrIllegalState = errors.New("illegal object state")
