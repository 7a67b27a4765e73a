package domain

import "errors"

var (
	// ErrValidation is returned when user supplied data is rejected: a duplicate
	// custom block name, a bad arity, an invalid behavior or patch.
	ErrValidation = errors.New("validation error")

	// ErrFormat is returned when a circuit document cannot be decoded.
	ErrFormat = errors.New("invalid circuit document")

	// ErrUnstable is returned when stabilization exhausts its pass budget.
	ErrUnstable = errors.New("circuit did not stabilize")

	// ErrDanglingConnection reports a connection that references a missing
	// component or pin.
	ErrDanglingConnection = errors.New("dangling connection")

	// ErrTooManyInputs is returned when a truth table would need more
	// combinations than the configured limit allows.
	ErrTooManyInputs = errors.New("too many primary inputs")

	// ErrPinOutOfRange is returned when a pin index does not fit the kind's arity.
	ErrPinOutOfRange = errors.New("pin index out of range")

	// ErrDuplicateKind is returned when registering a kind under a name that
	// is already taken.
	ErrDuplicateKind = errors.New("component kind already exists")

	// ErrKindConflict reports a document whose custom block disagrees with
	// the block registered under the same name.
	ErrKindConflict = errors.New("custom block conflicts with registered kind")

	// ErrBuiltinKind is returned when trying to remove a built-in kind.
	ErrBuiltinKind = errors.New("built-in kinds cannot be removed")

	// ErrNotSimulating is returned by interactive operations while the
	// simulation is stopped.
	ErrNotSimulating = errors.New("simulation is not running")
)

var (
	ErrKindNotFound       = errors.New("component kind not found")
	ErrComponentNotFound  = errors.New("component not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrCircuitNotFound    = errors.New("circuit not found")
	ErrJobNotFound        = errors.New("truth table job not found")

	// ErrSessionNotFound is returned when a session ID cannot be found.
	ErrSessionNotFound = errors.New("session not found")
)
