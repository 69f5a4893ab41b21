// Package services – WarrantyService
//
// This file implements the WarrantyService, which owns the coverage record
// lifecycle: registration (with advisory code reservation), window edits,
// the one-way VOID/CANCELLED transitions, and the read/query paths consumed
// by support and notification collaborators.
//
// Every mutation follows the same explicit pipeline: normalize derived
// fields, validate, then persist conditionally on the version the record was
// read at. Lost races reload and retry up to MaxRetries before surfacing
// ErrConflict. Read paths re-evaluate the expiration status before returning,
// so callers never observe a stale ACTIVE record past its window.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-warranty-backend/internal/domain"
	"github.com/tbourn/go-warranty-backend/internal/registry"
	"github.com/tbourn/go-warranty-backend/internal/repo"
	"gorm.io/datatypes"
)

// defaultMaxRetries bounds the reload-recompute-retry loop on version
// conflicts before the operation surfaces ErrConflict.
const defaultMaxRetries = 3

// upperCaser folds warranty codes to a canonical uppercase form before any
// registry or index check.
var upperCaser = cases.Upper(language.Und)

// RegisterInput carries the fields accepted at registration time. All
// references are opaque identifiers supplied by the calling collaborator.
type RegisterInput struct {
	WarrantyCode   string // optional; generated when blank
	SerialNumber   string
	BatchNumber    string
	ProductRef     string // required
	UserRef        string // optional; coverage may precede a known buyer
	OrderRef       string
	LineItemID     string
	ActivationDate time.Time
	StartDate      time.Time
	EndDate        time.Time
	CoverageType   domain.CoverageType // optional; defaults to STANDARD
	Meta           map[string]string
}

// WarrantyService provides coverage-record operations. It is safe for
// concurrent use; all mutations ride the version-gated write primitive.
type WarrantyService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Registry reserves warranty codes ahead of the authoritative unique
	// index, narrowing the duplicate race window.
	Registry *registry.CodeRegistry
	// MaxRetries bounds optimistic-concurrency retries (default 3).
	MaxRetries int
	// Now returns the current instant; overridable in tests.
	Now func() time.Time
}

// NewWarrantyService constructs a WarrantyService with default retry and
// clock behavior.
func NewWarrantyService(db *gorm.DB, reg *registry.CodeRegistry) *WarrantyService {
	return &WarrantyService{DB: db, Registry: reg, MaxRetries: defaultMaxRetries}
}

func (s *WarrantyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *WarrantyService) retries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return defaultMaxRetries
}

// NormalizeCode folds a warranty code to its canonical uppercase, trimmed
// form. Lookups and registrations both pass through here so the unique index
// sees one spelling per code.
func NormalizeCode(code string) string {
	return upperCaser.String(strings.TrimSpace(code))
}

// newWarrantyCode issues a fresh external code: "W-" plus the first twelve
// hex digits of a UUID, uppercased.
func newWarrantyCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "W-" + strings.ToUpper(raw[:12])
}

// Register validates the input, reserves the warranty code, derives the
// initial status, and persists the new coverage record.
//
// Semantics:
//   - ProductRef is required; ErrMissingProduct otherwise.
//   - All three dates are required and StartDate must not exceed EndDate;
//     ErrInvalidWindow otherwise.
//   - CoverageType defaults to STANDARD; unknown values yield
//     ErrInvalidCoverageType.
//   - Status starts as ACTIVE when ActivationDate <= now, otherwise
//     PENDING_ACTIVATION; the evaluator then runs once, so registering an
//     already-closed window lands directly in EXPIRED.
//   - A code held by the registry or the unique index yields
//     ErrDuplicateCode.
func (s *WarrantyService) Register(ctx context.Context, in RegisterInput) (*domain.WarrantyRecord, error) {
	if strings.TrimSpace(in.ProductRef) == "" {
		return nil, ErrMissingProduct
	}
	if in.ActivationDate.IsZero() || in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, ErrInvalidWindow
	}
	if in.StartDate.After(in.EndDate) {
		return nil, ErrInvalidWindow
	}
	coverage := in.CoverageType
	if coverage == "" {
		coverage = domain.CoverageStandard
	}
	if !coverage.Valid() {
		return nil, ErrInvalidCoverageType
	}

	code := NormalizeCode(in.WarrantyCode)
	if code == "" {
		code = newWarrantyCode()
	}

	// Advisory reservation; the unique index remains authoritative.
	if s.Registry != nil {
		if err := s.Registry.Reserve(code); err != nil {
			return nil, ErrDuplicateCode
		}
		defer s.Registry.Release(code)
	}

	now := s.now()
	status := domain.WarrantyPendingActivation
	if !in.ActivationDate.After(now) {
		status = domain.WarrantyActive
	}

	meta := in.Meta
	if meta == nil {
		meta = map[string]string{}
	}

	w := &domain.WarrantyRecord{
		ID:             uuid.NewString(),
		WarrantyCode:   code,
		SerialNumber:   strings.TrimSpace(in.SerialNumber),
		BatchNumber:    strings.TrimSpace(in.BatchNumber),
		ProductRef:     in.ProductRef,
		UserRef:        in.UserRef,
		OrderRef:       in.OrderRef,
		LineItemID:     in.LineItemID,
		ActivationDate: in.ActivationDate.UTC(),
		StartDate:      in.StartDate.UTC(),
		EndDate:        in.EndDate.UTC(),
		Status:         status,
		CoverageType:   coverage,
		Meta:           datatypes.NewJSONType(meta),
		Version:        1,
		CreatedAt:      now,
	}
	w.Normalize(now)

	if err := repo.CreateWarranty(ctx, s.DB, w); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return w, nil
}

// GetByCode returns the record for a warranty code with its claims, after
// lazily re-evaluating expiration. A status flip observed on read is
// persisted best-effort; losing that write to a concurrent mutation is
// harmless because every writer re-evaluates and the sweep repairs storage.
func (s *WarrantyService) GetByCode(ctx context.Context, code string) (*domain.WarrantyRecord, error) {
	w, err := repo.GetWarrantyByCode(ctx, s.DB, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, err
	}
	if w.Normalize(s.now()) {
		if err := repo.UpdateWarrantyVersioned(ctx, s.DB, w); err != nil && !errors.Is(err, repo.ErrStaleVersion) {
			return nil, err
		}
	}
	return w, nil
}

// GetBySerial returns every record carrying the serial number, re-evaluated
// in memory. Serial numbers are not unique across products.
func (s *WarrantyService) GetBySerial(ctx context.Context, serial string) ([]domain.WarrantyRecord, error) {
	out, err := repo.ListWarrantiesBySerial(ctx, s.DB, strings.TrimSpace(serial))
	if err != nil {
		return nil, err
	}
	s.normalizeAll(out)
	return out, nil
}

// ListByUser returns a page of the user's records plus the total count,
// newest first, each re-evaluated in memory.
func (s *WarrantyService) ListByUser(ctx context.Context, userRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountWarrantiesByUser(ctx, s.DB, userRef)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.WarrantyRecord{}, 0, nil
	}
	items, err := repo.ListWarrantiesByUserPage(ctx, s.DB, userRef, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	s.normalizeAll(items)
	return items, total, nil
}

// ListByProduct returns a page of a product's fleet plus the total count.
func (s *WarrantyService) ListByProduct(ctx context.Context, productRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountWarrantiesByProduct(ctx, s.DB, productRef)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.WarrantyRecord{}, 0, nil
	}
	items, err := repo.ListWarrantiesByProductPage(ctx, s.DB, productRef, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	s.normalizeAll(items)
	return items, total, nil
}

// ListByOrder returns every record registered under an order reference.
func (s *WarrantyService) ListByOrder(ctx context.Context, orderRef string) ([]domain.WarrantyRecord, error) {
	out, err := repo.ListWarrantiesByOrder(ctx, s.DB, orderRef)
	if err != nil {
		return nil, err
	}
	s.normalizeAll(out)
	return out, nil
}

// normalizeAll re-evaluates a slice in place without persisting; list reads
// must not fan out into per-row writes.
func (s *WarrantyService) normalizeAll(items []domain.WarrantyRecord) {
	now := s.now()
	for i := range items {
		items[i].Normalize(now)
	}
}

// UpdateWindow replaces one or both coverage dates. Nil pointers keep the
// current value.
//
// Semantics:
//   - Rejected with ErrAlreadyTerminal once the record is VOID or CANCELLED.
//   - The resulting window must satisfy StartDate <= EndDate.
//   - Derived fields are recomputed and the evaluator runs after the edit:
//     extending EndDate past now resurrects an EXPIRED record to ACTIVE,
//     and shrinking it below now expires an ACTIVE one.
//
// Concurrency: version-gated write with reload-retry; ErrConflict once the
// budget is exhausted.
func (s *WarrantyService) UpdateWindow(ctx context.Context, code string, startDate, endDate *time.Time) (*domain.WarrantyRecord, error) {
	code = NormalizeCode(code)

	for attempt := 0; attempt < s.retries(); attempt++ {
		w, err := repo.GetWarrantyByCode(ctx, s.DB, code)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrWarrantyNotFound
			}
			return nil, err
		}
		if w.Status.Terminal() {
			return nil, ErrAlreadyTerminal
		}

		if startDate != nil {
			w.StartDate = startDate.UTC()
		}
		if endDate != nil {
			w.EndDate = endDate.UTC()
		}
		if w.StartDate.After(w.EndDate) {
			return nil, ErrInvalidWindow
		}
		w.Normalize(s.now())

		err = repo.UpdateWarrantyVersioned(ctx, s.DB, w)
		if errors.Is(err, repo.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, ErrConflict
}

// Void marks a record VOID with the mandatory reason. One-way: a terminal
// record yields ErrAlreadyTerminal. Existing claims remain addressable.
func (s *WarrantyService) Void(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error) {
	return s.terminate(ctx, code, reason, domain.WarrantyVoid)
}

// Cancel marks a record CANCELLED with the mandatory reason. One-way: a
// terminal record yields ErrAlreadyTerminal. Existing claims remain
// addressable.
func (s *WarrantyService) Cancel(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error) {
	return s.terminate(ctx, code, reason, domain.WarrantyCancelled)
}

// terminate applies either one-way terminal transition under the shared
// validate-then-version-gated-write pipeline.
func (s *WarrantyService) terminate(ctx context.Context, code, reason string, target domain.WarrantyStatus) (*domain.WarrantyRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	code = NormalizeCode(code)

	for attempt := 0; attempt < s.retries(); attempt++ {
		w, err := repo.GetWarrantyByCode(ctx, s.DB, code)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrWarrantyNotFound
			}
			return nil, err
		}
		if w.Status.Terminal() {
			return nil, ErrAlreadyTerminal
		}

		w.Status = target
		switch target {
		case domain.WarrantyVoid:
			w.VoidReason = reason
		case domain.WarrantyCancelled:
			w.CancellationReason = reason
		}
		w.Normalize(s.now())

		err = repo.UpdateWarrantyVersioned(ctx, s.DB, w)
		if errors.Is(err, repo.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, ErrConflict
}
