// Package domain – status vocabulary and the claim workflow transition table.
//
// This file defines the closed sets of warranty and claim statuses, the
// coverage and resolution type enumerations, and the single source of truth
// for which claim status transitions are legal. Services consult these
// helpers instead of encoding transition rules inline.
package domain

// WarrantyStatus is the lifecycle state of a coverage record.
type WarrantyStatus string

// Warranty lifecycle states. VOID and CANCELLED are terminal; EXPIRED can be
// resurrected only by an explicit window extension (see Evaluate).
const (
	WarrantyPendingActivation WarrantyStatus = "PENDING_ACTIVATION"
	WarrantyActive            WarrantyStatus = "ACTIVE"
	WarrantyExpired           WarrantyStatus = "EXPIRED"
	WarrantyVoid              WarrantyStatus = "VOID"
	WarrantyCancelled         WarrantyStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions at all.
// EXPIRED is deliberately not terminal: an UpdateWindow extension may flip it
// back to ACTIVE.
func (s WarrantyStatus) Terminal() bool {
	return s == WarrantyVoid || s == WarrantyCancelled
}

// CoverageType classifies a warranty commercially. It is informational only
// and never affects transition rules.
type CoverageType string

// Supported coverage classifications.
const (
	CoverageStandard    CoverageType = "STANDARD"
	CoverageExtended    CoverageType = "EXTENDED"
	CoveragePromotional CoverageType = "PROMOTIONAL"
	CoverageServicePlan CoverageType = "SERVICE_PLAN"
	CoverageOther       CoverageType = "OTHER"
)

// Valid reports whether t is one of the supported coverage types.
func (t CoverageType) Valid() bool {
	switch t {
	case CoverageStandard, CoverageExtended, CoveragePromotional, CoverageServicePlan, CoverageOther:
		return true
	}
	return false
}

// ClaimStatus is the workflow state of a claim.
type ClaimStatus string

// Claim workflow states. RESOLVED and CANCELLED are terminal.
const (
	ClaimOpen        ClaimStatus = "OPEN"
	ClaimUnderReview ClaimStatus = "UNDER_REVIEW"
	ClaimApproved    ClaimStatus = "APPROVED"
	ClaimRejected    ClaimStatus = "REJECTED"
	ClaimResolved    ClaimStatus = "RESOLVED"
	ClaimCancelled   ClaimStatus = "CANCELLED"
)

// claimTransitions is the claim workflow table. A claim may only move along
// the listed edges; terminal states have no outgoing edges. Rejection still
// requires an explicit close to RESOLVED or CANCELLED.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimOpen:        {ClaimUnderReview, ClaimRejected, ClaimCancelled},
	ClaimUnderReview: {ClaimApproved, ClaimRejected, ClaimCancelled},
	ClaimApproved:    {ClaimResolved, ClaimCancelled},
	ClaimRejected:    {ClaimResolved, ClaimCancelled},
	ClaimResolved:    {},
	ClaimCancelled:   {},
}

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	_, ok := claimTransitions[s]
	return ok
}

// Terminal reports whether the claim status permits no further transitions.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimResolved || s == ClaimCancelled
}

// CanTransitionTo reports whether the workflow table allows moving from s to
// the given status.
func (s ClaimStatus) CanTransitionTo(to ClaimStatus) bool {
	for _, t := range claimTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// ResolutionType records how a resolved claim was settled. It is required
// before a claim may enter RESOLVED.
type ResolutionType string

// Supported claim resolutions.
const (
	ResolutionRepair     ResolutionType = "REPAIR"
	ResolutionReplace    ResolutionType = "REPLACE"
	ResolutionRefund     ResolutionType = "REFUND"
	ResolutionAdjustment ResolutionType = "ADJUSTMENT"
	ResolutionOther      ResolutionType = "OTHER"
)

// Valid reports whether t is one of the supported resolution types.
func (t ResolutionType) Valid() bool {
	switch t {
	case ResolutionRepair, ResolutionReplace, ResolutionRefund, ResolutionAdjustment, ResolutionOther:
		return true
	}
	return false
}
