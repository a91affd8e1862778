package frame

import "sync/atomic"

// IDAllocator hands out monotonically increasing frame identifiers starting at 1.
// It is owned by the XR device and shared with its sessions; safe for concurrent use.
type IDAllocator struct {
	last atomic.Uint64
}

// Next returns a fresh identifier, strictly greater than every identifier returned before it.
func (a *IDAllocator) Next() uint64 {
	return a.last.Add(1)
}

// Last returns the most recently allocated identifier, or 0 if none.
func (a *IDAllocator) Last() uint64 {
	return a.last.Load()
}
