package bridge

import "errors"

// Domain-specific errors for bridge operations.
var (
	// ErrHubFailure wraps the hub error that stopped Run under the exit policy.
	ErrHubFailure = errors.New("bridge: hub call failed")

	// ErrUnknownPolicy is returned for an error policy other than log or exit.
	ErrUnknownPolicy = errors.New("bridge: unknown error policy")
)
