// Package pool provides a managed worker pool for blocking pipeline work.
package pool

import "errors"

var (
	// ErrPoolClosed is returned when submitting to a released pool.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolOverload is returned when a nonblocking pool is saturated.
	ErrPoolOverload = errors.New("pool is overloaded")
)
