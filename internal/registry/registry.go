// Package registry implements the advisory warranty-code reservation used
// during registration. It narrows the window in which two concurrent
// registrations with the same code can both pass a check-then-act sequence;
// the unique index on warranty_records.warranty_code remains the
// authoritative guard, so losing a reservation to a crash is harmless (it
// simply expires).
package registry

import (
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrCodeReserved indicates that the code is currently reserved or already
// registered by another in-flight registration.
var ErrCodeReserved = errors.New("warranty code already reserved")

// CodeRegistry reserves warranty codes for the duration of a registration
// attempt. Reservations are process-local and expire after a TTL, so an
// abandoned registration never leaks a code permanently.
//
// The zero value is not usable; construct with New.
type CodeRegistry struct {
	codes *gocache.Cache
}

// New returns a registry whose reservations expire after ttl. Values <= 0
// default to two minutes, comfortably longer than any registration attempt.
func New(ttl time.Duration) *CodeRegistry {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &CodeRegistry{
		codes: gocache.New(ttl, ttl),
	}
}

// Reserve atomically claims code until the TTL elapses or Release is called.
// Returns ErrCodeReserved when another caller holds the code.
func (r *CodeRegistry) Reserve(code string) error {
	if err := r.codes.Add(code, struct{}{}, gocache.DefaultExpiration); err != nil {
		return ErrCodeReserved
	}
	return nil
}

// Release frees a reservation, typically after the insert either succeeded
// (the unique index now owns the code) or failed validation.
func (r *CodeRegistry) Release(code string) {
	r.codes.Delete(code)
}
