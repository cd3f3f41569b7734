// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrInvalidConfig indicates bad marketplace construction arguments; bootstrap aborts.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidArgument indicates a bad caller-supplied value (zero price, empty title, nil identity).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the caller lacks the required role or ownership.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInsufficientBalance indicates the buyer's token balance cannot cover the price.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance indicates the marketplace allowance cannot cover the price.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrTransferFailed indicates the token service rejected a transfer.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrNoOp indicates the operation would have no effect (e.g. unchanged beneficiary).
	ErrNoOp = errors.New("no-op")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
