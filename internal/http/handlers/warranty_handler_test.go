package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-warranty-backend/internal/domain"
	"github.com/tbourn/go-warranty-backend/internal/registry"
	"github.com/tbourn/go-warranty-backend/internal/repo"
	"github.com/tbourn/go-warranty-backend/internal/services"
)

// ---------- test plumbing ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// realHandlers wires Handlers against the concrete services over a fresh DB.
func realHandlers(t *testing.T) (*Handlers, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	wsvc := services.NewWarrantyService(db, registry.New(0))
	csvc := &services.ClaimService{DB: db}
	ssvc := &services.SweepService{DB: db}
	return New(wsvc, csvc, ssvc), db
}

// registerActive registers a record whose window straddles the real clock so
// the evaluated status is ACTIVE.
func registerActive(t *testing.T, h *Handlers, code, user string) *domain.WarrantyRecord {
	t.Helper()
	now := time.Now().UTC()
	w, err := h.warrantySvc.Register(context.Background(), services.RegisterInput{
		WarrantyCode:   code,
		SerialNumber:   "SN-1000",
		ProductRef:     "prod-1",
		UserRef:        user,
		OrderRef:       "order-1",
		ActivationDate: now.Add(-time.Hour),
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(720 * time.Hour),
	})
	if err != nil {
		t.Fatalf("register %s: %v", code, err)
	}
	return w
}

// Handlers.New expects interfaces in this package; we satisfy them with stubs.

type stubWarrantySvc struct {
	register      func(ctx context.Context, in services.RegisterInput) (*domain.WarrantyRecord, error)
	getByCode     func(ctx context.Context, code string) (*domain.WarrantyRecord, error)
	getBySerial   func(ctx context.Context, serial string) ([]domain.WarrantyRecord, error)
	listByUser    func(ctx context.Context, userRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error)
	listByProduct func(ctx context.Context, productRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error)
	listByOrder   func(ctx context.Context, orderRef string) ([]domain.WarrantyRecord, error)
	updateWindow  func(ctx context.Context, code string, startDate, endDate *time.Time) (*domain.WarrantyRecord, error)
	void          func(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error)
	cancel        func(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error)
}

func (s stubWarrantySvc) Register(ctx context.Context, in services.RegisterInput) (*domain.WarrantyRecord, error) {
	return s.register(ctx, in)
}
func (s stubWarrantySvc) GetByCode(ctx context.Context, code string) (*domain.WarrantyRecord, error) {
	return s.getByCode(ctx, code)
}
func (s stubWarrantySvc) GetBySerial(ctx context.Context, serial string) ([]domain.WarrantyRecord, error) {
	return s.getBySerial(ctx, serial)
}
func (s stubWarrantySvc) ListByUser(ctx context.Context, userRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error) {
	return s.listByUser(ctx, userRef, page, pageSize)
}
func (s stubWarrantySvc) ListByProduct(ctx context.Context, productRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error) {
	return s.listByProduct(ctx, productRef, page, pageSize)
}
func (s stubWarrantySvc) ListByOrder(ctx context.Context, orderRef string) ([]domain.WarrantyRecord, error) {
	return s.listByOrder(ctx, orderRef)
}
func (s stubWarrantySvc) UpdateWindow(ctx context.Context, code string, startDate, endDate *time.Time) (*domain.WarrantyRecord, error) {
	return s.updateWindow(ctx, code, startDate, endDate)
}
func (s stubWarrantySvc) Void(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error) {
	return s.void(ctx, code, reason)
}
func (s stubWarrantySvc) Cancel(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error) {
	return s.cancel(ctx, code, reason)
}

type stubClaimSvc struct {
	file       func(ctx context.Context, code, claimNumber, issue, createdBy string) (*domain.Claim, error)
	get        func(ctx context.Context, code, claimNumber string) (*domain.Claim, error)
	list       func(ctx context.Context, code string) ([]domain.Claim, error)
	transition func(ctx context.Context, code, claimNumber string, to domain.ClaimStatus, actor, notes string, rt domain.ResolutionType) (*domain.Claim, error)
	attach     func(ctx context.Context, code, claimNumber, url, label, actor string) (*domain.Claim, error)
}

func (s stubClaimSvc) File(ctx context.Context, code, claimNumber, issue, createdBy string) (*domain.Claim, error) {
	return s.file(ctx, code, claimNumber, issue, createdBy)
}
func (s stubClaimSvc) Get(ctx context.Context, code, claimNumber string) (*domain.Claim, error) {
	return s.get(ctx, code, claimNumber)
}
func (s stubClaimSvc) List(ctx context.Context, code string) ([]domain.Claim, error) {
	return s.list(ctx, code)
}
func (s stubClaimSvc) Transition(ctx context.Context, code, claimNumber string, to domain.ClaimStatus, actor, notes string, rt domain.ResolutionType) (*domain.Claim, error) {
	return s.transition(ctx, code, claimNumber, to, actor, notes, rt)
}
func (s stubClaimSvc) AttachDocument(ctx context.Context, code, claimNumber, url, label, actor string) (*domain.Claim, error) {
	return s.attach(ctx, code, claimNumber, url, label, actor)
}

type stubSweep struct {
	run func(ctx context.Context) (int, error)
}

func (s stubSweep) Run(ctx context.Context) (int, error) { return s.run(ctx) }

// decodeErr unpacks the standard error envelope.
func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error envelope: %v body=%s", err, w.Body.String())
	}
	return e
}

// ---------- helpers-only unit tests ----------

func Test_clampPagination_and_userID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=-3&page_size=9999", nil)
	p, ps := clampPagination(c)
	if p != 1 || ps != 100 {
		t.Fatalf("clamp: got page=%d size=%d; want 1,100", p, ps)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=&page_size=0", nil)
	p, ps = clampPagination(c)
	if p != 1 || ps != 1 {
		t.Fatalf("clamp defaults: got %d,%d", p, ps)
	}

	// userID: context value wins over header wins over fallback.
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	if got := userID(c); got != "demo-user" {
		t.Fatalf("fallback user: %q", got)
	}
	c.Request.Header.Set("X-User-ID", "header-user")
	if got := userID(c); got != "header-user" {
		t.Fatalf("header user: %q", got)
	}
	c.Set("userID", "ctx-user")
	if got := userID(c); got != "ctx-user" {
		t.Fatalf("ctx user: %q", got)
	}
}

// ---------- RegisterWarranty ----------

func TestRegisterWarranty_Binding_Success_Duplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := realHandlers(t)

	r := gin.New()
	r.POST("/warranties", h.RegisterWarranty)

	// malformed JSON
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/warranties", bytes.NewBufferString(`{`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed -> %d", w.Code)
	}

	// missing productRef fails binding
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/warranties", bytes.NewBufferString(
		`{"activationDate":"2025-03-01T00:00:00Z","startDate":"2025-03-01T00:00:00Z","endDate":"2026-03-01T00:00:00Z"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing product -> %d", w.Code)
	}

	// success: user comes from the header when the payload omits it
	now := time.Now().UTC()
	body := fmt.Sprintf(
		`{"warrantyCode":"w-reg-1","productRef":"prod-9","activationDate":%q,"startDate":%q,"endDate":%q}`,
		now.Add(-time.Hour).Format(time.RFC3339),
		now.Add(-time.Hour).Format(time.RFC3339),
		now.Add(720*time.Hour).Format(time.RFC3339),
	)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/warranties", bytes.NewBufferString(body))
	req.Header.Set("X-User-ID", "u-reg")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("register -> %d body=%s", w.Code, w.Body.String())
	}
	var created domain.WarrantyRecord
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("json: %v", err)
	}
	if created.WarrantyCode != "W-REG-1" || created.UserRef != "u-reg" || created.Status != domain.WarrantyActive {
		t.Fatalf("unexpected record: %+v", created)
	}

	// same code again -> 409 with the duplicate code
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/warranties", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate -> %d", w.Code)
	}
	if e := decodeErr(t, w); e.Code != ErrCodeDuplicateCode {
		t.Fatalf("duplicate code: %q", e.Code)
	}
}

// ---------- ListWarranties ----------

func TestListWarranties_Pagination_And_ETag304(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, db := realHandlers(t)

	for i := 0; i < 3; i++ {
		registerActive(t, h, fmt.Sprintf("W-LIST-%d", i), "u-list")
	}

	r := gin.New()
	r.GET("/warranties", h.ListWarranties)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/warranties?page=2&page_size=2", nil)
	req.Header.Set("X-User-ID", "u-list")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}
	var out ListWarrantiesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Warranties) != 1 || out.Pagination.Total != 3 || out.Pagination.TotalPages != 2 || out.Pagination.HasNext {
		t.Fatalf("pagination wrong: %#v", out.Pagination)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	// recompute through the stats helper; both must agree
	count, maxTS, err := repo.WarrantyStats(context.Background(), db, "u-list")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	if want := fmt.Sprintf(`W/"warranties:%s:%d:%d"`, "u-list", count, ts); etag != want {
		t.Fatalf("etag: got %q want %q", etag, want)
	}

	// 304 path
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/warranties", nil)
	req.Header.Set("X-User-ID", "u-list")
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("etag 304 -> %d", w.Code)
	}
}

// ---------- GetWarranty / lookups ----------

func TestGetWarranty_And_Lookups(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := realHandlers(t)
	registerActive(t, h, "W-GET-1", "u-get")

	r := gin.New()
	r.GET("/warranties/:code", h.GetWarranty)
	r.GET("/serials/:serial/warranties", h.GetWarrantiesBySerial)
	r.GET("/orders/:id/warranties", h.ListOrderWarranties)

	// not found
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/warranties/W-NOPE", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	// fetch, lowercase code accepted
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/warranties/w-get-1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get -> %d body=%s", w.Code, w.Body.String())
	}

	// serial lookup
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/serials/SN-1000/warranties", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serial -> %d", w.Code)
	}
	var bySerial WarrantiesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &bySerial); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(bySerial.Warranties) != 1 || bySerial.Warranties[0].WarrantyCode != "W-GET-1" {
		t.Fatalf("serial lookup wrong: %#v", bySerial.Warranties)
	}

	// order lookup
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/orders/order-1/warranties", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("order -> %d", w.Code)
	}
}

func TestListProductWarranties_ETagAndPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, db := realHandlers(t)
	registerActive(t, h, "W-PROD-1", "u-p")
	registerActive(t, h, "W-PROD-2", "u-p")

	r := gin.New()
	r.GET("/products/:id/warranties", h.ListProductWarranties)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/prod-1/warranties?page_size=1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("product list -> %d", w.Code)
	}
	var out ListWarrantiesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Warranties) != 1 || out.Pagination.Total != 2 || !out.Pagination.HasNext {
		t.Fatalf("product pagination wrong: %#v", out.Pagination)
	}

	count, maxTS, err := repo.ProductWarrantyStats(context.Background(), db, "prod-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	etag := fmt.Sprintf(`W/"product-warranties:%s:%d:%d"`, "prod-1", count, ts)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/products/prod-1/warranties", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("etag 304 -> %d", w.Code)
	}
}

// ---------- UpdateWarrantyWindow ----------

func TestUpdateWarrantyWindow_Validation_And_ErrorMappings(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// both dates omitted -> 400 before the service is touched
	h := New(stubWarrantySvc{
		updateWindow: func(ctx context.Context, code string, s, e *time.Time) (*domain.WarrantyRecord, error) {
			t.Fatalf("UpdateWindow should not be called")
			return nil, nil
		},
	}, stubClaimSvc{}, nil)
	r := gin.New()
	r.PUT("/warranties/:code/window", h.UpdateWarrantyWindow)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/warranties/W-1/window", bytes.NewBufferString(`{}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty window -> %d", w.Code)
	}

	cases := []struct {
		name     string
		err      error
		want     int
		wantCode string
	}{
		{"not_found", services.ErrWarrantyNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"invalid_window", services.ErrInvalidWindow, http.StatusBadRequest, ErrCodeBadRequest},
		{"terminal", services.ErrAlreadyTerminal, http.StatusConflict, ErrCodeTerminalState},
		{"conflict", services.ErrConflict, http.StatusConflict, ErrCodeConflict},
		{"generic_500", gorm.ErrInvalidField, http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := New(stubWarrantySvc{
				updateWindow: func(ctx context.Context, code string, s, e *time.Time) (*domain.WarrantyRecord, error) {
					return nil, tc.err
				},
			}, stubClaimSvc{}, nil)
			r := gin.New()
			r.PUT("/warranties/:code/window", h.UpdateWarrantyWindow)

			w := httptest.NewRecorder()
			body := bytes.NewBufferString(`{"endDate":"2027-03-01T00:00:00Z"}`)
			req := httptest.NewRequest(http.MethodPut, "/warranties/W-1/window", body)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("want %d, got %d body=%s", tc.want, w.Code, w.Body.String())
			}
			if e := decodeErr(t, w); e.Code != tc.wantCode {
				t.Fatalf("code: got %q want %q", e.Code, tc.wantCode)
			}
		})
	}
}

func TestUpdateWarrantyWindow_Extends(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := realHandlers(t)
	registerActive(t, h, "W-WIN-1", "u-win")

	r := gin.New()
	r.PUT("/warranties/:code/window", h.UpdateWarrantyWindow)

	end := time.Now().UTC().Add(2000 * time.Hour).Format(time.RFC3339)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/warranties/W-WIN-1/window",
		bytes.NewBufferString(fmt.Sprintf(`{"endDate":%q}`, end)))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("window -> %d body=%s", w.Code, w.Body.String())
	}
	var rec domain.WarrantyRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("json: %v", err)
	}
	if rec.Version != 2 || rec.Status != domain.WarrantyActive {
		t.Fatalf("unexpected record after edit: version=%d status=%s", rec.Version, rec.Status)
	}
}

// ---------- Void / Cancel ----------

func TestVoidAndCancel_ReasonRequired_And_OneWay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := realHandlers(t)
	registerActive(t, h, "W-TERM-1", "u-term")

	r := gin.New()
	r.POST("/warranties/:code/void", h.VoidWarranty)
	r.POST("/warranties/:code/cancel", h.CancelWarranty)

	// missing reason
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/warranties/W-TERM-1/void", bytes.NewBufferString(`{"reason":"  "}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank reason -> %d", w.Code)
	}

	// void succeeds
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/warranties/W-TERM-1/void", bytes.NewBufferString(`{"reason":"fraud"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("void -> %d body=%s", w.Code, w.Body.String())
	}
	var rec domain.WarrantyRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("json: %v", err)
	}
	if rec.Status != domain.WarrantyVoid || rec.VoidReason != "fraud" {
		t.Fatalf("void state: %+v", rec)
	}

	// cancel on a voided record -> 409 terminal_state
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/warranties/W-TERM-1/cancel", bytes.NewBufferString(`{"reason":"late"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("cancel after void -> %d", w.Code)
	}
	if e := decodeErr(t, w); e.Code != ErrCodeTerminalState {
		t.Fatalf("cancel code: %q", e.Code)
	}

	// unknown record -> 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/warranties/W-NOPE/cancel", bytes.NewBufferString(`{"reason":"x"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cancel missing -> %d", w.Code)
	}
}

// ---------- RunSweep ----------

func TestRunSweep_Stub_And_Unconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(stubWarrantySvc{}, stubClaimSvc{}, stubSweep{
		run: func(ctx context.Context) (int, error) { return 2, nil },
	})
	r := gin.New()
	r.POST("/admin/sweep", h.RunSweep)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/sweep", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sweep -> %d", w.Code)
	}
	var out SweepResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Expired != 2 {
		t.Fatalf("expired: %d", out.Expired)
	}

	// nil runner -> 500
	h2 := New(stubWarrantySvc{}, stubClaimSvc{}, nil)
	r2 := gin.New()
	r2.POST("/admin/sweep", h2.RunSweep)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/sweep", nil)
	r2.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("unconfigured sweep -> %d", w.Code)
	}
}
