// Package services – ClaimService
//
// This file implements the ClaimService, which governs the claim workflow
// nested under a coverage record: filing, review transitions, resolution,
// cancellation, and append-only document attachments.
//
// The parent record is the unit of mutual exclusion. Every claim write runs
// in a transaction that pairs the claim row change with a compare-and-swap
// on the parent's version column, so two concurrent transitions on the same
// claim can never both succeed from the same prior state: the loser reloads,
// re-checks the workflow table against the fresh state, and typically
// surfaces InvalidTransition — exactly the linearization the review flow
// needs. Exhausting the retry budget surfaces ErrConflict instead.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-warranty-backend/internal/domain"
	"github.com/tbourn/go-warranty-backend/internal/repo"
)

// ClaimService implements the claim workflow use-cases. It is safe for
// concurrent use.
type ClaimService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// MaxRetries bounds optimistic-concurrency retries (default 3).
	MaxRetries int
	// Now returns the current instant; overridable in tests.
	Now func() time.Time
}

func (s *ClaimService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ClaimService) retries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return defaultMaxRetries
}

// loadRecord fetches and lazily re-evaluates the parent record addressed by
// its warranty code, without persisting the evaluation (the subsequent
// version-gated write carries it).
func (s *ClaimService) loadRecord(ctx context.Context, code string) (*domain.WarrantyRecord, error) {
	w, err := repo.GetWarrantyByCode(ctx, s.DB, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, err
	}
	w.Normalize(s.now())
	return w, nil
}

// Get returns a single claim, documents included, addressed by warranty code
// and claim number.
func (s *ClaimService) Get(ctx context.Context, warrantyCode, claimNumber string) (*domain.Claim, error) {
	w, err := s.loadRecord(ctx, warrantyCode)
	if err != nil {
		return nil, err
	}
	claim, err := repo.GetClaim(ctx, s.DB, w.ID, claimNumber)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return claim, nil
}

// List returns the record's claims in filing order.
func (s *ClaimService) List(ctx context.Context, warrantyCode string) ([]domain.Claim, error) {
	w, err := s.loadRecord(ctx, warrantyCode)
	if err != nil {
		return nil, err
	}
	return repo.ListClaims(ctx, s.DB, w.ID)
}

// File appends a new OPEN claim to the record addressed by warranty code.
//
// Semantics and validation:
//   - claimNumber and issueDescription are required.
//   - The parent's re-evaluated status must be ACTIVE: terminal records
//     yield ErrWarrantyTerminal, anything else non-ACTIVE yields
//     *NotActiveError carrying the blocking status.
//   - claimNumber must be unused within the parent; ErrDuplicateClaimNumber
//     otherwise. Uniqueness across records is a collaborator concern.
//   - On success SubmittedAt is set to now and the parent's LastClaimAt
//     watermark advances.
//
// Concurrency & atomicity: the claim insert and the parent version bump land
// in one transaction, retried on version conflicts up to the budget.
func (s *ClaimService) File(ctx context.Context, warrantyCode, claimNumber, issueDescription, createdBy string) (*domain.Claim, error) {
	claimNumber = strings.TrimSpace(claimNumber)
	if claimNumber == "" {
		return nil, ErrEmptyClaimNumber
	}
	if strings.TrimSpace(issueDescription) == "" {
		return nil, ErrEmptyIssue
	}

	for attempt := 0; attempt < s.retries(); attempt++ {
		w, err := s.loadRecord(ctx, warrantyCode)
		if err != nil {
			return nil, err
		}
		if w.Status.Terminal() {
			return nil, ErrWarrantyTerminal
		}
		if w.Status != domain.WarrantyActive {
			return nil, &NotActiveError{Status: w.Status}
		}

		now := s.now()
		claim := &domain.Claim{
			ID:               uuid.NewString(),
			WarrantyID:       w.ID,
			ClaimNumber:      claimNumber,
			Status:           domain.ClaimOpen,
			SubmittedAt:      now,
			IssueDescription: issueDescription,
			CreatedBy:        createdBy,
			UpdatedBy:        createdBy,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		w.TouchLastClaim(now)

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repo.UpdateWarrantyVersionedTx(tx, w); err != nil {
				return err
			}
			return repo.CreateClaim(ctx, tx, claim)
		})
		if errors.Is(err, repo.ErrStaleVersion) {
			continue
		}
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateClaimNumber
		}
		if err != nil {
			return nil, err
		}
		return claim, nil
	}
	return nil, ErrConflict
}

// Transition moves a claim along the workflow table.
//
// Semantics and validation:
//   - toStatus must be a known claim status and reachable from the claim's
//     current status; otherwise *InvalidTransitionError.
//   - Entering RESOLVED requires a valid resolutionType
//     (ErrMissingResolutionType / ErrInvalidResolutionType).
//   - Entering RESOLVED or CANCELLED stamps ResolvedAt.
//   - resolutionNotes, when non-empty, replace the stored notes.
//   - UpdatedBy is set to actor on every successful transition.
//
// Claims on VOID/CANCELLED records remain addressable so an in-flight review
// can still be closed out; only filing new claims is barred there.
func (s *ClaimService) Transition(ctx context.Context, warrantyCode, claimNumber string, toStatus domain.ClaimStatus, actor, resolutionNotes string, resolutionType domain.ResolutionType) (*domain.Claim, error) {
	for attempt := 0; attempt < s.retries(); attempt++ {
		w, err := s.loadRecord(ctx, warrantyCode)
		if err != nil {
			return nil, err
		}
		claim, err := repo.GetClaim(ctx, s.DB, w.ID, claimNumber)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrClaimNotFound
			}
			return nil, err
		}

		if !toStatus.Valid() || !claim.Status.CanTransitionTo(toStatus) {
			return nil, &InvalidTransitionError{From: claim.Status, To: toStatus}
		}
		if toStatus == domain.ClaimResolved {
			if resolutionType == "" && claim.ResolutionType == "" {
				return nil, ErrMissingResolutionType
			}
		}
		if resolutionType != "" && !resolutionType.Valid() {
			return nil, ErrInvalidResolutionType
		}

		now := s.now()
		claim.Status = toStatus
		if resolutionType != "" {
			claim.ResolutionType = resolutionType
		}
		if strings.TrimSpace(resolutionNotes) != "" {
			claim.ResolutionNotes = resolutionNotes
		}
		if toStatus.Terminal() {
			t := now
			claim.ResolvedAt = &t
		}
		claim.UpdatedBy = actor
		claim.UpdatedAt = now

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repo.UpdateWarrantyVersionedTx(tx, w); err != nil {
				return err
			}
			return repo.UpdateClaimTx(tx, claim)
		})
		if errors.Is(err, repo.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return claim, nil
	}
	return nil, ErrConflict
}

// AttachDocument appends an attachment reference to a claim. Append-only:
// there is no update or delete path, and terminal claims refuse new
// documents to preserve resolution-time evidentiary state.
func (s *ClaimService) AttachDocument(ctx context.Context, warrantyCode, claimNumber, url, label, actor string) (*domain.Claim, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrMissingDocumentURL
	}

	for attempt := 0; attempt < s.retries(); attempt++ {
		w, err := s.loadRecord(ctx, warrantyCode)
		if err != nil {
			return nil, err
		}
		claim, err := repo.GetClaim(ctx, s.DB, w.ID, claimNumber)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrClaimNotFound
			}
			return nil, err
		}
		if claim.Status.Terminal() {
			return nil, ErrClaimTerminal
		}

		now := s.now()
		doc := &domain.ClaimDocument{
			ID:         uuid.NewString(),
			ClaimID:    claim.ID,
			URL:        url,
			Label:      label,
			UploadedAt: now,
		}
		claim.UpdatedBy = actor
		claim.UpdatedAt = now

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repo.UpdateWarrantyVersionedTx(tx, w); err != nil {
				return err
			}
			if err := repo.AppendClaimDocumentTx(tx, doc); err != nil {
				return err
			}
			return repo.UpdateClaimTx(tx, claim)
		})
		if errors.Is(err, repo.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, err
		}
		claim.Documents = append(claim.Documents, *doc)
		return claim, nil
	}
	return nil, ErrConflict
}
