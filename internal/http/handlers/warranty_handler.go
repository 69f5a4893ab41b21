// Warranty HTTP handlers.
//
// This file exposes REST endpoints for coverage records:
//   - POST   /warranties                  (register)
//   - GET    /warranties                  (list current user's, paginated, ETag support)
//   - GET    /warranties/{code}           (fetch one with claims)
//   - GET    /serials/{serial}/warranties (all records carrying a serial number)
//   - GET    /products/{id}/warranties    (product fleet, paginated, ETag support)
//   - GET    /orders/{id}/warranties      (records registered under an order)
//   - PUT    /warranties/{code}/window    (edit coverage dates)
//   - POST   /warranties/{code}/void      (one-way VOID)
//   - POST   /warranties/{code}/cancel    (one-way CANCELLED)
//   - POST   /admin/sweep                 (trigger an expiration sweep pass)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-warranty-backend/internal/domain"
	"github.com/tbourn/go-warranty-backend/internal/repo"
	"github.com/tbourn/go-warranty-backend/internal/services"
	"github.com/tbourn/go-warranty-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// WarrantyService defines coverage-record lifecycle operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type WarrantyService interface {
	// Register validates and persists a new coverage record.
	Register(ctx context.Context, in services.RegisterInput) (*domain.WarrantyRecord, error)
	// GetByCode returns one record with its claims, re-evaluated.
	GetByCode(ctx context.Context, code string) (*domain.WarrantyRecord, error)
	// GetBySerial returns every record carrying the serial number.
	GetBySerial(ctx context.Context, serial string) ([]domain.WarrantyRecord, error)
	// ListByUser returns a page of the user's records and the total count.
	ListByUser(ctx context.Context, userRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error)
	// ListByProduct returns a page of a product's fleet and the total count.
	ListByProduct(ctx context.Context, productRef string, page, pageSize int) ([]domain.WarrantyRecord, int64, error)
	// ListByOrder returns records registered under an order reference.
	ListByOrder(ctx context.Context, orderRef string) ([]domain.WarrantyRecord, error)
	// UpdateWindow replaces one or both coverage dates.
	UpdateWindow(ctx context.Context, code string, startDate, endDate *time.Time) (*domain.WarrantyRecord, error)
	// Void marks a record VOID with a mandatory reason.
	Void(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error)
	// Cancel marks a record CANCELLED with a mandatory reason.
	Cancel(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error)
}

// ClaimService defines claim workflow operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ClaimService interface {
	// File appends a new OPEN claim to an ACTIVE record.
	File(ctx context.Context, warrantyCode, claimNumber, issueDescription, createdBy string) (*domain.Claim, error)
	// Get returns one claim with its documents.
	Get(ctx context.Context, warrantyCode, claimNumber string) (*domain.Claim, error)
	// List returns the record's claims in filing order.
	List(ctx context.Context, warrantyCode string) ([]domain.Claim, error)
	// Transition moves a claim along the review workflow.
	Transition(ctx context.Context, warrantyCode, claimNumber string, toStatus domain.ClaimStatus, actor, resolutionNotes string, resolutionType domain.ResolutionType) (*domain.Claim, error)
	// AttachDocument appends an attachment reference to a claim.
	AttachDocument(ctx context.Context, warrantyCode, claimNumber, url, label, actor string) (*domain.Claim, error)
}

// SweepRunner triggers one expiration sweep pass on demand.
type SweepRunner interface {
	Run(ctx context.Context) (int, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for warranties, claims, and the sweep.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	warrantySvc WarrantyService
	claimSvc    ClaimService
	sweep       SweepRunner
}

// New constructs and returns a Handlers instance bound to the given services.
func New(warrantySvc WarrantyService, claimSvc ClaimService, sweep SweepRunner) *Handlers {
	return &Handlers{warrantySvc: warrantySvc, claimSvc: claimSvc, sweep: sweep}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// RegisterWarrantyRequest is the JSON payload for registering coverage.
type RegisterWarrantyRequest struct {
	// WarrantyCode optionally pins the external code; one is generated when empty.
	WarrantyCode string `json:"warrantyCode" example:"W-9F2C41A07D13"`
	SerialNumber string `json:"serialNumber" example:"SN-4411-0092"`
	BatchNumber  string `json:"batchNumber" example:"B-2025-07"`
	// ProductRef is the opaque product identifier. Required.
	ProductRef string `json:"productRef" binding:"required" example:"prod-8841"`
	UserRef    string `json:"userRef" example:"user-123"`
	OrderRef   string `json:"orderRef" example:"order-5520"`
	LineItemID string `json:"lineItemId" example:"li-2"`
	// ActivationDate, StartDate and EndDate are RFC 3339 timestamps. Required.
	ActivationDate time.Time `json:"activationDate" binding:"required" example:"2025-03-01T00:00:00Z"`
	StartDate      time.Time `json:"startDate" binding:"required" example:"2025-03-01T00:00:00Z"`
	EndDate        time.Time `json:"endDate" binding:"required" example:"2026-03-01T00:00:00Z"`
	// CoverageType defaults to STANDARD when empty.
	CoverageType string            `json:"coverageType" example:"EXTENDED"`
	Meta         map[string]string `json:"meta"`
}

// UpdateWindowRequest is the JSON payload for editing coverage dates.
// Omitted fields keep their current value.
type UpdateWindowRequest struct {
	StartDate *time.Time `json:"startDate" example:"2025-03-01T00:00:00Z"`
	EndDate   *time.Time `json:"endDate" example:"2027-03-01T00:00:00Z"`
}

// ReasonRequest is the JSON payload for void and cancel operations.
type ReasonRequest struct {
	// Reason is mandatory for both VOID and CANCELLED transitions.
	Reason string `json:"reason" binding:"required,min=1" example:"serial number reported stolen"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListWarrantiesResponse wraps a page of records and pagination information.
type ListWarrantiesResponse struct {
	Warranties []domain.WarrantyRecord `json:"warranties"`
	Pagination Pagination              `json:"pagination"`
}

// WarrantiesResponse wraps an unpaginated set of records (serial and order
// lookups, which are naturally small).
type WarrantiesResponse struct {
	Warranties []domain.WarrantyRecord `json:"warranties"`
}

// SweepResponse reports the outcome of an on-demand sweep pass.
type SweepResponse struct {
	Expired int `json:"expired"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationMeta assembles the standard pagination block.
func paginationMeta(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// RegisterWarranty godoc
// @ID          registerWarranty
// @Summary     Register coverage
// @Description Registers a new coverage record for a product/serial and returns it.
// @Tags        Warranties
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.RegisterWarrantyRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.WarrantyRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Warranty code already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /warranties [post]
func (h *Handlers) RegisterWarranty(c *gin.Context) {
	var req RegisterWarrantyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	in := services.RegisterInput{
		WarrantyCode:   req.WarrantyCode,
		SerialNumber:   req.SerialNumber,
		BatchNumber:    req.BatchNumber,
		ProductRef:     req.ProductRef,
		UserRef:        req.UserRef,
		OrderRef:       req.OrderRef,
		LineItemID:     req.LineItemID,
		ActivationDate: req.ActivationDate,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CoverageType:   domain.CoverageType(strings.ToUpper(strings.TrimSpace(req.CoverageType))),
		Meta:           req.Meta,
	}
	if in.UserRef == "" {
		in.UserRef = userID(c)
	}

	w, err := h.warrantySvc.Register(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingProduct),
			errors.Is(err, services.ErrInvalidWindow),
			errors.Is(err, services.ErrInvalidCoverageType):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrDuplicateCode):
			fail(c, http.StatusConflict, ErrCodeDuplicateCode, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, w)
}

// ListWarranties godoc
// @ID          listWarranties
// @Summary     List the current user's warranties (paginated)
// @Description Returns a page of the user's coverage records, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Warranties
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListWarrantiesResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties [get]
func (h *Handlers) ListWarranties(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.warrantyDB(); db != nil {
		count, maxTS, err := repo.WarrantyStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"warranties:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.warrantySvc.ListByUser(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListWarrantiesResponse{
		Warranties: items,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// GetWarranty godoc
// @ID          getWarranty
// @Summary     Fetch a coverage record
// @Description Returns the record for a warranty code, claims included, with its expiration state re-evaluated.
// @Tags        Warranties
// @Produce     json
//
// @Param       code  path  string  true  "Warranty code"  example(W-9F2C41A07D13)
//
// @Success     200  {object} domain.WarrantyRecord
// @Failure     404  {object} handlers.ErrorResponse "Warranty not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code} [get]
func (h *Handlers) GetWarranty(c *gin.Context) {
	w, err := h.warrantySvc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrWarrantyNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "warranty not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, w)
}

// GetWarrantiesBySerial godoc
// @ID          getWarrantiesBySerial
// @Summary     Look up coverage by serial number
// @Description Returns every record carrying the serial number. Serial numbers are not unique across products.
// @Tags        Warranties
// @Produce     json
//
// @Param       serial  path  string  true  "Serial number"  example(SN-4411-0092)
//
// @Success     200  {object} handlers.WarrantiesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /serials/{serial}/warranties [get]
func (h *Handlers) GetWarrantiesBySerial(c *gin.Context) {
	out, err := h.warrantySvc.GetBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, WarrantiesResponse{Warranties: out})
}

// ListProductWarranties godoc
// @ID          listProductWarranties
// @Summary     List a product's coverage fleet (paginated)
// @Description Returns a page of records registered for a product. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Warranties
// @Produce     json
//
// @Param       id             path    string  true  "Product reference"           example(prod-8841)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListWarrantiesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products/{id}/warranties [get]
func (h *Handlers) ListProductWarranties(c *gin.Context) {
	ctx := c.Request.Context()
	productRef := c.Param("id")
	page, pageSize := clampPagination(c)

	if db := h.warrantyDB(); db != nil {
		count, maxTS, err := repo.ProductWarrantyStats(ctx, db, productRef)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"product-warranties:%s:%d:%d"`, productRef, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.warrantySvc.ListByProduct(ctx, productRef, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListWarrantiesResponse{
		Warranties: items,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// ListOrderWarranties godoc
// @ID          listOrderWarranties
// @Summary     List coverage registered under an order
// @Tags        Warranties
// @Produce     json
//
// @Param       id  path  string  true  "Order reference"  example(order-5520)
//
// @Success     200  {object} handlers.WarrantiesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /orders/{id}/warranties [get]
func (h *Handlers) ListOrderWarranties(c *gin.Context) {
	out, err := h.warrantySvc.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, WarrantiesResponse{Warranties: out})
}

// UpdateWarrantyWindow godoc
// @ID          updateWarrantyWindow
// @Summary     Edit the coverage window
// @Description Replaces one or both coverage dates. Omitted fields keep their value. Extending the end date past now resurrects an EXPIRED record.
// @Tags        Warranties
// @Accept      json
// @Produce     json
//
// @Param       code  path  string  true  "Warranty code"  example(W-9F2C41A07D13)
// @Param       body  body  handlers.UpdateWindowRequest  true  "New window"
//
// @Success     200  {object} domain.WarrantyRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Warranty not found"
// @Failure     409  {object} handlers.ErrorResponse "Terminal record or concurrent update"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code}/window [put]
func (h *Handlers) UpdateWarrantyWindow(c *gin.Context) {
	var req UpdateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.StartDate == nil && req.EndDate == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one of startDate, endDate is required")
		return
	}

	w, err := h.warrantySvc.UpdateWindow(c.Request.Context(), c.Param("code"), req.StartDate, req.EndDate)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWarrantyNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "warranty not found")
		case errors.Is(err, services.ErrInvalidWindow):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrAlreadyTerminal):
			fail(c, http.StatusConflict, ErrCodeTerminalState, err.Error())
		case errors.Is(err, services.ErrConflict):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, w)
}

// VoidWarranty godoc
// @ID          voidWarranty
// @Summary     Void a coverage record
// @Description One-way transition to VOID with a mandatory reason. Existing claims stay addressable.
// @Tags        Warranties
// @Accept      json
// @Produce     json
//
// @Param       code  path  string  true  "Warranty code"  example(W-9F2C41A07D13)
// @Param       body  body  handlers.ReasonRequest  true  "Void reason"
//
// @Success     200  {object} domain.WarrantyRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Warranty not found"
// @Failure     409  {object} handlers.ErrorResponse "Already terminal or concurrent update"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code}/void [post]
func (h *Handlers) VoidWarranty(c *gin.Context) {
	h.terminate(c, h.warrantySvc.Void)
}

// CancelWarranty godoc
// @ID          cancelWarranty
// @Summary     Cancel a coverage record
// @Description One-way transition to CANCELLED with a mandatory reason. Existing claims stay addressable.
// @Tags        Warranties
// @Accept      json
// @Produce     json
//
// @Param       code  path  string  true  "Warranty code"  example(W-9F2C41A07D13)
// @Param       body  body  handlers.ReasonRequest  true  "Cancellation reason"
//
// @Success     200  {object} domain.WarrantyRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Warranty not found"
// @Failure     409  {object} handlers.ErrorResponse "Already terminal or concurrent update"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code}/cancel [post]
func (h *Handlers) CancelWarranty(c *gin.Context) {
	h.terminate(c, h.warrantySvc.Cancel)
}

// terminate shares the request plumbing of the two one-way transitions.
func (h *Handlers) terminate(c *gin.Context, op func(ctx context.Context, code, reason string) (*domain.WarrantyRecord, error)) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reason required")
		return
	}

	w, err := op(c.Request.Context(), c.Param("code"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWarrantyNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "warranty not found")
		case errors.Is(err, services.ErrEmptyReason):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrAlreadyTerminal):
			fail(c, http.StatusConflict, ErrCodeTerminalState, err.Error())
		case errors.Is(err, services.ErrConflict):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, w)
}

// RunSweep godoc
// @ID          runSweep
// @Summary     Trigger an expiration sweep pass
// @Description Runs one sweep pass synchronously and reports how many records were flipped to EXPIRED. Idempotent.
// @Tags        Admin
// @Produce     json
//
// @Success     200  {object} handlers.SweepResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/sweep [post]
func (h *Handlers) RunSweep(c *gin.Context) {
	if h.sweep == nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "sweep not configured")
		return
	}
	n, err := h.sweep.Run(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, SweepResponse{Expired: n})
}

// warrantyDB exposes the concrete service's DB handle for conditional-response
// stats; nil when the handler was wired with a non-default implementation.
func (h *Handlers) warrantyDB() *gorm.DB {
	if svc, ok := h.warrantySvc.(*services.WarrantyService); ok {
		return svc.DB
	}
	return nil
}
