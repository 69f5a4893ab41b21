package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-warranty-backend/internal/domain"
	"github.com/tbourn/go-warranty-backend/internal/registry"
	"github.com/tbourn/go-warranty-backend/internal/repo"
)

// t0 is the fixed reference instant used by clock-injected tests.
var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestDB opens a unique in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testCtx() context.Context { return context.Background() }

// fixedClock returns a Now func pinned to at.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// newWarrantySvc builds a WarrantyService on db with the clock pinned to at.
func newWarrantySvc(db *gorm.DB, at time.Time) *WarrantyService {
	s := NewWarrantyService(db, registry.New(0))
	s.Now = fixedClock(at)
	return s
}

// newClaimSvc builds a ClaimService on db with the clock pinned to at.
func newClaimSvc(db *gorm.DB, at time.Time) *ClaimService {
	return &ClaimService{DB: db, Now: fixedClock(at)}
}

// registerActive registers a record whose window spans [t0-10d, t0+30d], so
// it is ACTIVE at t0.
func registerActive(t *testing.T, svc *WarrantyService, code string) *domain.WarrantyRecord {
	t.Helper()
	w, err := svc.Register(testCtx(), RegisterInput{
		WarrantyCode:   code,
		SerialNumber:   "SN-1000",
		ProductRef:     "prod-1",
		UserRef:        "user-1",
		OrderRef:       "order-1",
		ActivationDate: t0.AddDate(0, 0, -10),
		StartDate:      t0.AddDate(0, 0, -10),
		EndDate:        t0.AddDate(0, 0, 30),
	})
	if err != nil {
		t.Fatalf("register %s: %v", code, err)
	}
	return w
}
