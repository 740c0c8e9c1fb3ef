package secureelement

import (
	"github.com/pkg/errors"
)

// Errors reported for caller-contract violations. Engine failures (e.g. MIC
// mismatch) are not interpreted here and are forwarded to the caller as-is.
var (
	// ErrNilInput is returned when a required input buffer is absent.
	ErrNilInput = errors.New("secure-element: nil input")

	// ErrInvalidLength is returned when an input buffer does not have the
	// exact size its field requires.
	ErrInvalidLength = errors.New("secure-element: invalid input length")

	// ErrBufferTooLarge is returned when the encrypted join-accept frame
	// exceeds the size of a join-accept with CFList.
	ErrBufferTooLarge = errors.New("secure-element: join-accept frame exceeds maximum size")

	// ErrBufferOverflow is returned when a CMAC message exceeds the crypto
	// buffer capacity.
	ErrBufferOverflow = errors.New("secure-element: message exceeds crypto buffer size")

	// ErrVersionUndetermined is returned when a join-accept decrypts with a
	// valid MIC, but the version bit in the plaintext contradicts the trial
	// it was decrypted under.
	ErrVersionUndetermined = errors.New("secure-element: lorawan version could not be determined")
)
