package auction

import "errors"

// Abort categories. Every failed call wraps exactly one of these and rolls
// back completely; callers discriminate with errors.Is and retry only after
// correcting the precondition.
var (
	// ErrPhase indicates a wrong lifecycle state or a call outside its
	// time window.
	ErrPhase = errors.New("phase violation")

	// ErrAuthorization indicates a wrong caller, e.g. a seller bidding on
	// their own auction or a non-seller claiming seller payment.
	ErrAuthorization = errors.New("authorization violation")

	// ErrDuplicate indicates a second bid, reveal or claim from the same
	// party.
	ErrDuplicate = errors.New("duplicate submission")

	// ErrIntegrity indicates a commitment or proof mismatch.
	ErrIntegrity = errors.New("integrity violation")

	// ErrRange indicates an amount outside the representable bound or below
	// the auction minimum.
	ErrRange = errors.New("range violation")

	// ErrDependency indicates a failed external transfer or verifier call.
	ErrDependency = errors.New("dependency failure")
)
