package solver

import "errors"

// ErrorKind is one of the six kinds of error spec.md §7 allows to
// escape the core. Internal failures have no kind of their own: an error
// returned by column generation (a master-LP or pricer failure) is
// reported as KindInfeasible, and an LNS failure is logged while the
// pre-LNS rosters are kept.
type ErrorKind int

const (
	// KindNone marks a successful Solve call.
	KindNone ErrorKind = iota
	// KindInvalidInput: duplicate tour-id, bad time, empty input.
	KindInvalidInput
	// KindInfeasible: coverage impossible under config after CG + restricted MIP.
	KindInfeasible
	// KindZeroSupport: one or more tours have no block in the capped pool.
	KindZeroSupport
	// KindTimeout: time budget exhausted before any integer solution.
	KindTimeout
	// KindCancelled: external cancellation before completion.
	KindCancelled
	// KindValidationFailed: the independent validator rejected the solver's own output.
	KindValidationFailed
)

// String renders the ErrorKind for logs, evidence, and CLI exit-code mapping.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindInfeasible:
		return "INFEASIBLE"
	case KindZeroSupport:
		return "ZERO_SUPPORT"
	case KindTimeout:
		return "TIMEOUT"
	case KindCancelled:
		return "CANCELLED"
	case KindValidationFailed:
		return "VALIDATION_FAILED"
	default:
		return "NONE"
	}
}

// SolveError wraps an ErrorKind with the uncovered-tour list (when
// relevant) and an underlying cause, the one error type Solve ever returns.
type SolveError struct {
	Kind           ErrorKind
	UncoveredTours []string
	Cause          error
}

func (e *SolveError) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *SolveError) Unwrap() error { return e.Cause }

var errEmptyTourSet = errors.New("solver: empty tour set")
