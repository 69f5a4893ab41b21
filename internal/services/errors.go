// Package services defines the business logic of the warranty engine:
// coverage registration, window edits, terminal transitions, the claim
// workflow, and the expiration sweep. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-warranty-backend/internal/domain"
)

// Validation errors — rejected before any mutation; fully recoverable by the
// caller correcting input.
var (
	// ErrInvalidWindow is returned when startDate exceeds endDate or a
	// required date is missing.
	ErrInvalidWindow = errors.New("invalid coverage window")

	// ErrMissingProduct is returned when a registration carries no product
	// reference.
	ErrMissingProduct = errors.New("product reference is required")

	// ErrInvalidCoverageType is returned when a registration names an
	// unknown coverage classification.
	ErrInvalidCoverageType = errors.New("unknown coverage type")

	// ErrEmptyReason is returned when void/cancel is requested without a
	// non-empty reason.
	ErrEmptyReason = errors.New("reason is required")

	// ErrEmptyClaimNumber is returned when a claim is filed without a
	// claim number.
	ErrEmptyClaimNumber = errors.New("claim number is required")

	// ErrEmptyIssue is returned when a claim is filed without an issue
	// description.
	ErrEmptyIssue = errors.New("issue description is required")

	// ErrMissingDocumentURL is returned when a document attachment carries
	// no URL.
	ErrMissingDocumentURL = errors.New("document url is required")

	// ErrMissingResolutionType is returned when a claim is moved to
	// RESOLVED without a resolution type.
	ErrMissingResolutionType = errors.New("resolution type is required to resolve a claim")

	// ErrInvalidResolutionType is returned when the supplied resolution
	// type is not one of the supported values.
	ErrInvalidResolutionType = errors.New("unknown resolution type")
)

// Uniqueness errors — the caller must choose a new identifier.
var (
	// ErrDuplicateCode indicates the warranty code is already registered.
	ErrDuplicateCode = errors.New("warranty code already registered")

	// ErrDuplicateClaimNumber indicates the claim number is already used
	// within the parent record.
	ErrDuplicateClaimNumber = errors.New("claim number already exists on this warranty")
)

// Lookup and state errors.
var (
	// ErrWarrantyNotFound indicates that the requested coverage record does
	// not exist.
	ErrWarrantyNotFound = errors.New("warranty not found")

	// ErrClaimNotFound indicates that the requested claim does not exist on
	// the addressed record.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrWarrantyTerminal is returned when a claim is filed against a VOID
	// or CANCELLED record.
	ErrWarrantyTerminal = errors.New("warranty is void or cancelled")

	// ErrNotActive is returned when a claim is filed against a record whose
	// evaluated status is not ACTIVE. Use errors.As with *NotActiveError to
	// recover the blocking status.
	ErrNotActive = errors.New("warranty is not active")

	// ErrAlreadyTerminal is returned when void/cancel/window-edit targets a
	// record already in a terminal state.
	ErrAlreadyTerminal = errors.New("warranty already in a terminal state")

	// ErrInvalidTransition is returned when a claim status change is not in
	// the workflow table. Use errors.As with *InvalidTransitionError to
	// recover the offending pair.
	ErrInvalidTransition = errors.New("invalid claim transition")

	// ErrClaimTerminal is returned when mutating a claim that has already
	// reached RESOLVED or CANCELLED.
	ErrClaimTerminal = errors.New("claim already resolved or cancelled")

	// ErrConflict is returned when the optimistic-concurrency retry budget
	// is exhausted; the caller should re-fetch and retry the operation.
	ErrConflict = errors.New("concurrent update conflict")
)

// NotActiveError reports a claim-filing attempt against a record whose
// evaluated status is not ACTIVE, carrying that status so callers can explain
// the refusal to the end user. It matches ErrNotActive under errors.Is.
type NotActiveError struct {
	Status domain.WarrantyStatus
}

// Error implements the error interface.
func (e *NotActiveError) Error() string {
	return fmt.Sprintf("warranty is not active (status %s)", e.Status)
}

// Is makes errors.Is(err, ErrNotActive) succeed for this type.
func (e *NotActiveError) Is(target error) bool { return target == ErrNotActive }

// InvalidTransitionError reports a claim status change outside the workflow
// table, carrying both the current and the requested status. It matches
// ErrInvalidTransition under errors.Is.
type InvalidTransitionError struct {
	From domain.ClaimStatus
	To   domain.ClaimStatus
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid claim transition %s -> %s", e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) succeed for this type.
func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
