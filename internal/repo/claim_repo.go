// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Claim
// sub-entity and its append-only documents.
//
// Claims never move between records and are always reached through their
// parent; concurrency control lives on the parent record's version column,
// so the functions here stay deliberately thin.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-warranty-backend/internal/domain"
)

// CreateClaim inserts a new claim row. Returns ErrDuplicate when the
// (warranty_id, claim_number) pair is already taken.
func CreateClaim(ctx context.Context, db *gorm.DB, c *domain.Claim) error {
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetClaim fetches a claim by parent record and claim number, documents
// included, or ErrNotFound.
func GetClaim(ctx context.Context, db *gorm.DB, warrantyID, claimNumber string) (*domain.Claim, error) {
	var c domain.Claim
	err := db.WithContext(ctx).
		Preload("Documents", func(q *gorm.DB) *gorm.DB {
			return q.Order("uploaded_at ASC, id ASC")
		}).
		Where("warranty_id = ? AND claim_number = ?", warrantyID, claimNumber).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClaimByID fetches a claim by primary key, documents included. Used by
// the idempotent-replay path, which stores claim IDs rather than numbers.
func GetClaimByID(ctx context.Context, db *gorm.DB, id string) (*domain.Claim, error) {
	var c domain.Claim
	err := db.WithContext(ctx).
		Preload("Documents", func(q *gorm.DB) *gorm.DB {
			return q.Order("uploaded_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClaims returns all claims of a record in filing order.
func ListClaims(ctx context.Context, db *gorm.DB, warrantyID string) ([]domain.Claim, error) {
	var out []domain.Claim
	err := db.WithContext(ctx).
		Where("warranty_id = ?", warrantyID).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// UpdateClaimTx writes the mutable claim fields on the given (transactional)
// handle. The caller pairs this with a parent version bump in the same
// transaction; there is no per-claim version column.
func UpdateClaimTx(tx *gorm.DB, c *domain.Claim) error {
	return tx.
		Model(&domain.Claim{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"status":           c.Status,
			"resolved_at":      c.ResolvedAt,
			"resolution_notes": c.ResolutionNotes,
			"resolution_type":  c.ResolutionType,
			"updated_by":       c.UpdatedBy,
			"updated_at":       c.UpdatedAt,
		}).Error
}

// AppendClaimDocumentTx inserts an attachment reference. Documents are
// append-only; there is no update or delete path.
func AppendClaimDocumentTx(tx *gorm.DB, doc *domain.ClaimDocument) error {
	return tx.Create(doc).Error
}
