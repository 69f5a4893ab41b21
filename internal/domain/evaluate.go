// Package domain – expiration evaluation and derived-field normalization.
//
// Evaluate is the single pure function that derives a record's effective
// status from the clock and the coverage window. It is called lazily on every
// read/mutation path and eagerly by the periodic sweep, so no caller ever
// acts on a stale ACTIVE record. Normalize wraps it into the explicit
// "normalize-then-validate-then-persist" step applied before every write.
package domain

import (
	"math"
	"time"
)

// Evaluate derives the effective status of w at the given instant.
//
// Rules:
//   - ACTIVE with EndDate < now          => EXPIRED
//   - EXPIRED with EndDate >= now        => ACTIVE (window was extended)
//   - anything else                      => unchanged
//
// The function never mutates w and is idempotent: re-evaluating an already
// EXPIRED record with an unchanged window yields EXPIRED again.
func Evaluate(w *WarrantyRecord, now time.Time) WarrantyStatus {
	switch w.Status {
	case WarrantyActive:
		if w.EndDate.Before(now) {
			return WarrantyExpired
		}
	case WarrantyExpired:
		if !w.EndDate.Before(now) {
			return WarrantyActive
		}
	}
	return w.Status
}

// DurationDays computes the derived coverage length, rounded to whole days.
func DurationDays(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// Normalize recomputes every derived field on w: DurationDays from the
// window, Status via Evaluate, and the IsActive convenience flag. It reports
// whether any field changed, so callers can decide if a persist is needed.
func (w *WarrantyRecord) Normalize(now time.Time) bool {
	changed := false

	if d := DurationDays(w.StartDate, w.EndDate); d != w.DurationDays {
		w.DurationDays = d
		changed = true
	}
	if next := Evaluate(w, now); next != w.Status {
		w.Status = next
		changed = true
	}
	active := w.Status == WarrantyActive || w.Status == WarrantyPendingActivation
	if active != w.IsActive {
		w.IsActive = active
		changed = true
	}
	return changed
}

// TouchLastClaim bumps LastClaimAt if submittedAt is later than the current
// value (or the value is unset).
func (w *WarrantyRecord) TouchLastClaim(submittedAt time.Time) {
	if w.LastClaimAt == nil || submittedAt.After(*w.LastClaimAt) {
		t := submittedAt
		w.LastClaimAt = &t
	}
}
