// Package limiter throttles login attempts per (username, ip) pair so
// credential stuffing cannot cheaply probe marketplace accounts.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter tracks failed logins and enforces temporary lockouts.
type Limiter interface {
	// Allow reports whether a login attempt may proceed; when blocked it also
	// returns how long until the block expires.
	Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
	// Success clears the failure counter after a correct password.
	Success(ctx context.Context, username string, ipHash []byte) error
	// Failure records a bad attempt; crossing the threshold sets a block and
	// reports it together with its duration.
	Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
}

// HashIP maps a client address to a fixed-size digest so raw IPs are never
// stored.
func HashIP(ip string) []byte {
	sum := sha256.Sum256([]byte(ip))
	return sum[:]
}
