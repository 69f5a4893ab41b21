// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// WarrantyRecord aggregate.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unique-constraint violations on warranty_code surface as ErrDuplicate.
//   - A conditional update that matched no row because the version moved
//     surfaces as ErrStaleVersion; the caller owns the reload-retry loop.
//
// Concurrency:
//   - UpdateWarrantyVersioned is the single write primitive for existing
//     records. It compares-and-swaps on the version column, which makes the
//     record (with its nested claims) the unit of mutual exclusion: two
//     writers that read the same version cannot both win.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-warranty-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrStaleVersion indicates a conditional update lost an optimistic-
// concurrency race: the record's version changed between read and write.
var ErrStaleVersion = errors.New("stale version")

// isDuplicateErr detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey. glebarez/sqlite often returns plain-text
// errors for UNIQUE violations.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// CreateWarranty inserts a new coverage record. The caller supplies all
// fields, including the derived ones (the service normalizes before insert).
// Returns ErrDuplicate when warranty_code is already taken.
func CreateWarranty(ctx context.Context, db *gorm.DB, w *domain.WarrantyRecord) error {
	if err := db.WithContext(ctx).Create(w).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// withClaims preloads the nested claims in filing order together with their
// append-only document lists.
func withClaims(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Claims", func(q *gorm.DB) *gorm.DB {
			return q.Order("submitted_at ASC, id ASC")
		}).
		Preload("Claims.Documents", func(q *gorm.DB) *gorm.DB {
			return q.Order("uploaded_at ASC, id ASC")
		})
}

// GetWarrantyByCode fetches a record by its external warranty code, claims
// included, or ErrNotFound.
func GetWarrantyByCode(ctx context.Context, db *gorm.DB, code string) (*domain.WarrantyRecord, error) {
	var w domain.WarrantyRecord
	err := withClaims(db.WithContext(ctx)).
		Where("warranty_code = ?", code).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetWarrantyByID fetches a record by primary key, claims included.
func GetWarrantyByID(ctx context.Context, db *gorm.DB, id string) (*domain.WarrantyRecord, error) {
	var w domain.WarrantyRecord
	err := withClaims(db.WithContext(ctx)).
		Where("id = ?", id).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWarrantiesBySerial returns every record carrying the serial number.
// Serials are not unique across products, so this is a list, not a get.
func ListWarrantiesBySerial(ctx context.Context, db *gorm.DB, serial string) ([]domain.WarrantyRecord, error) {
	var out []domain.WarrantyRecord
	err := db.WithContext(ctx).
		Where("serial_number = ?", serial).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountWarrantiesByUser returns the total number of records owned by userRef.
func CountWarrantiesByUser(ctx context.Context, db *gorm.DB, userRef string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.WarrantyRecord{}).
		Where("user_ref = ?", userRef).
		Count(&total).Error
	return total, err
}

// ListWarrantiesByUserPage returns a page of records for userRef, newest first.
func ListWarrantiesByUserPage(ctx context.Context, db *gorm.DB, userRef string, offset, limit int) ([]domain.WarrantyRecord, error) {
	var out []domain.WarrantyRecord
	err := db.WithContext(ctx).
		Where("user_ref = ?", userRef).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountWarrantiesByProduct returns the total number of records for productRef.
func CountWarrantiesByProduct(ctx context.Context, db *gorm.DB, productRef string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.WarrantyRecord{}).
		Where("product_ref = ?", productRef).
		Count(&total).Error
	return total, err
}

// ListWarrantiesByProductPage returns a page of records for productRef.
func ListWarrantiesByProductPage(ctx context.Context, db *gorm.DB, productRef string, offset, limit int) ([]domain.WarrantyRecord, error) {
	var out []domain.WarrantyRecord
	err := db.WithContext(ctx).
		Where("product_ref = ?", productRef).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListWarrantiesByOrder returns every record referencing orderRef (orders
// carry at most a handful of covered line items, so no pagination).
func ListWarrantiesByOrder(ctx context.Context, db *gorm.DB, orderRef string) ([]domain.WarrantyRecord, error) {
	var out []domain.WarrantyRecord
	err := db.WithContext(ctx).
		Where("order_ref = ?", orderRef).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListExpiredActiveIDs returns up to limit primary keys of ACTIVE records
// whose window has already closed, ordered by id so that disjoint sweep
// batches can be formed deterministically.
func ListExpiredActiveIDs(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.WarrantyRecord{}).
		Where("status = ? AND end_date < ?", domain.WarrantyActive, now).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// warrantyUpdateColumns lists every mutable column written by the versioned
// update. Identity, references, and the activation date are immutable after
// insert and intentionally absent.
func warrantyUpdateColumns(w *domain.WarrantyRecord, now time.Time) map[string]any {
	return map[string]any{
		"start_date":          w.StartDate,
		"end_date":            w.EndDate,
		"duration_days":       w.DurationDays,
		"status":              w.Status,
		"coverage_type":       w.CoverageType,
		"is_active":           w.IsActive,
		"void_reason":         w.VoidReason,
		"cancellation_reason": w.CancellationReason,
		"last_claim_at":       w.LastClaimAt,
		"meta":                w.Meta,
		"updated_at":          now,
		"version":             w.Version + 1,
	}
}

// UpdateWarrantyVersioned writes w's mutable fields conditionally on the
// version the caller read. On success the version is incremented both in the
// database and on w. When the row moved underneath the caller it returns
// ErrStaleVersion and leaves w untouched.
func UpdateWarrantyVersioned(ctx context.Context, db *gorm.DB, w *domain.WarrantyRecord) error {
	res := db.WithContext(ctx).
		Model(&domain.WarrantyRecord{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(warrantyUpdateColumns(w, time.Now().UTC()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	w.Version++
	return nil
}

// UpdateWarrantyVersionedTx is the transaction-scoped variant used when a
// claim write must land atomically with the parent version bump. It performs
// the same compare-and-swap against the given (usually transactional) handle.
func UpdateWarrantyVersionedTx(tx *gorm.DB, w *domain.WarrantyRecord) error {
	res := tx.
		Model(&domain.WarrantyRecord{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(warrantyUpdateColumns(w, time.Now().UTC()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	w.Version++
	return nil
}
