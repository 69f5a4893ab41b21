package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-warranty-backend/internal/domain"
)

// newRecord builds a minimal ACTIVE record for seeding.
func newRecord(code string) *domain.WarrantyRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return &domain.WarrantyRecord{
		ID:             uuid.NewString(),
		WarrantyCode:   code,
		SerialNumber:   "SN-100",
		ProductRef:     "prod-1",
		UserRef:        "user-1",
		OrderRef:       "order-1",
		ActivationDate: start,
		StartDate:      start,
		EndDate:        end,
		DurationDays:   domain.DurationDays(start, end),
		Status:         domain.WarrantyActive,
		CoverageType:   domain.CoverageStandard,
		IsActive:       true,
		Version:        1,
		CreatedAt:      start,
	}
}

func TestCreateWarranty_DuplicateCode(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := CreateWarranty(ctx, db, newRecord("W-DUP")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := CreateWarranty(ctx, db, newRecord("W-DUP"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetWarrantyByCode_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := GetWarrantyByCode(context.Background(), db, "W-MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetWarrantyByCode_PreloadsClaimsInFilingOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := newRecord("W-ORDER")
	if err := CreateWarranty(ctx, db, w); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Insert out of filing order on purpose.
	second := &domain.Claim{
		ID: uuid.NewString(), WarrantyID: w.ID, ClaimNumber: "C-2",
		Status: domain.ClaimOpen, SubmittedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IssueDescription: "later",
	}
	first := &domain.Claim{
		ID: uuid.NewString(), WarrantyID: w.ID, ClaimNumber: "C-1",
		Status: domain.ClaimOpen, SubmittedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		IssueDescription: "earlier",
	}
	for _, c := range []*domain.Claim{second, first} {
		if err := CreateClaim(ctx, db, c); err != nil {
			t.Fatalf("claim insert: %v", err)
		}
	}

	got, err := GetWarrantyByCode(ctx, db, "W-ORDER")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(got.Claims))
	}
	if got.Claims[0].ClaimNumber != "C-1" || got.Claims[1].ClaimNumber != "C-2" {
		t.Fatalf("claims out of filing order: %s, %s", got.Claims[0].ClaimNumber, got.Claims[1].ClaimNumber)
	}
}

func TestListWarrantiesBySerial_NotUniqueAcrossProducts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := newRecord("W-A")
	b := newRecord("W-B")
	b.ProductRef = "prod-2" // same serial, different product
	for _, w := range []*domain.WarrantyRecord{a, b} {
		if err := CreateWarranty(ctx, db, w); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := ListWarrantiesBySerial(ctx, db, "SN-100")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for shared serial, got %d", len(got))
	}
}

func TestListWarrantiesByUserPage_AndCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		w := newRecord("W-U" + uuid.NewString())
		w.CreatedAt = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := CreateWarranty(ctx, db, w); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	total, err := CountWarrantiesByUser(ctx, db, "user-1")
	if err != nil || total != 5 {
		t.Fatalf("count = %d, err = %v", total, err)
	}

	page, err := ListWarrantiesByUserPage(ctx, db, "user-1", 0, 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	// Newest first.
	if page[0].CreatedAt.Before(page[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}
}

func TestListWarrantiesByOrderAndProduct(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := newRecord("W-REF")
	if err := CreateWarranty(ctx, db, w); err != nil {
		t.Fatalf("insert: %v", err)
	}

	byOrder, err := ListWarrantiesByOrder(ctx, db, "order-1")
	if err != nil || len(byOrder) != 1 {
		t.Fatalf("byOrder len=%d err=%v", len(byOrder), err)
	}

	n, err := CountWarrantiesByProduct(ctx, db, "prod-1")
	if err != nil || n != 1 {
		t.Fatalf("product count=%d err=%v", n, err)
	}
	byProduct, err := ListWarrantiesByProductPage(ctx, db, "prod-1", 0, 10)
	if err != nil || len(byProduct) != 1 {
		t.Fatalf("byProduct len=%d err=%v", len(byProduct), err)
	}
}

func TestListExpiredActiveIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expired := newRecord("W-EXPIRED")
	expired.EndDate = now.AddDate(0, -1, 0)

	current := newRecord("W-CURRENT")
	current.EndDate = now.AddDate(1, 0, 0)

	done := newRecord("W-DONE")
	done.EndDate = now.AddDate(0, -1, 0)
	done.Status = domain.WarrantyExpired

	for _, w := range []*domain.WarrantyRecord{expired, current, done} {
		if err := CreateWarranty(ctx, db, w); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	ids, err := ListExpiredActiveIDs(ctx, db, now, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != expired.ID {
		t.Fatalf("expected only the stale ACTIVE record, got %v", ids)
	}
}

func TestUpdateWarrantyVersioned_BumpsVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := newRecord("W-VER")
	if err := CreateWarranty(ctx, db, w); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w.Status = domain.WarrantyExpired
	w.IsActive = false
	if err := UpdateWarrantyVersioned(ctx, db, w); err != nil {
		t.Fatalf("update: %v", err)
	}
	if w.Version != 2 {
		t.Fatalf("expected version 2, got %d", w.Version)
	}

	got, err := GetWarrantyByCode(ctx, db, "W-VER")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 2 || got.Status != domain.WarrantyExpired {
		t.Fatalf("persisted version=%d status=%s", got.Version, got.Status)
	}
}

func TestUpdateWarrantyVersioned_StaleVersionLoses(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := newRecord("W-RACE")
	if err := CreateWarranty(ctx, db, w); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Two writers read the same version.
	a, _ := GetWarrantyByCode(ctx, db, "W-RACE")
	b, _ := GetWarrantyByCode(ctx, db, "W-RACE")

	a.VoidReason = "writer a"
	a.Status = domain.WarrantyVoid
	if err := UpdateWarrantyVersioned(ctx, db, a); err != nil {
		t.Fatalf("writer a: %v", err)
	}

	b.CancellationReason = "writer b"
	b.Status = domain.WarrantyCancelled
	err := UpdateWarrantyVersioned(ctx, db, b)
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion for writer b, got %v", err)
	}

	// Writer a's update is the one that stuck.
	got, _ := GetWarrantyByCode(ctx, db, "W-RACE")
	if got.Status != domain.WarrantyVoid || got.VoidReason != "writer a" {
		t.Fatalf("lost update: status=%s reason=%q", got.Status, got.VoidReason)
	}
}
