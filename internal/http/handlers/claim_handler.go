// Claim HTTP handlers.
//
// This file exposes REST endpoints for the claim workflow nested under a
// coverage record:
//   - POST /warranties/{code}/claims                              (file a claim)
//   - GET  /warranties/{code}/claims                              (list claims in filing order)
//   - GET  /warranties/{code}/claims/{claimNumber}                (fetch one claim with documents)
//   - POST /warranties/{code}/claims/{claimNumber}/transition     (move along the review workflow)
//   - POST /warranties/{code}/claims/{claimNumber}/documents      (append an attachment reference)
//
// Handlers are transport-thin:
//   - validate & normalize inputs
//   - delegate to the application service (ClaimService)
//   - implement idempotency semantics for claim filing
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, warranty code, key), the handler returns that
// recorded claim and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-warranty-backend/internal/domain"
	"github.com/tbourn/go-warranty-backend/internal/repo"
	"github.com/tbourn/go-warranty-backend/internal/services"
)

//
// DTOs
//

// FileClaimRequest is the JSON payload for filing a claim.
type FileClaimRequest struct {
	// ClaimNumber is the client-assigned identifier, unique within the record.
	ClaimNumber string `json:"claimNumber" binding:"required,min=1" example:"C-2025-0001"`
	// IssueDescription explains what went wrong. It must be non-empty.
	IssueDescription string `json:"issueDescription" binding:"required,min=1" example:"Display flickers after firmware update"`
}

// TransitionClaimRequest is the JSON payload for moving a claim along the
// review workflow.
type TransitionClaimRequest struct {
	// Status is the requested target status.
	Status string `json:"status" binding:"required" example:"UNDER_REVIEW"`
	// ResolutionNotes optionally replace the stored notes.
	ResolutionNotes string `json:"resolutionNotes" example:"replacement unit shipped"`
	// ResolutionType is required when entering RESOLVED.
	ResolutionType string `json:"resolutionType" example:"REPLACE"`
}

// AttachDocumentRequest is the JSON payload for appending an attachment.
type AttachDocumentRequest struct {
	// URL points at the stored attachment. Required.
	URL string `json:"url" binding:"required,min=1" example:"https://cdn.example.com/claims/receipt.pdf"`
	// Label optionally names the attachment for display.
	Label string `json:"label" example:"purchase receipt"`
}

// ClaimResponse is the JSON envelope for a single claim.
type ClaimResponse struct {
	Claim *domain.Claim `json:"claim"`
}

// ListClaimsResponse contains a record's claims in filing order.
type ListClaimsResponse struct {
	Claims []domain.Claim `json:"claims"`
}

//
// Handlers
//

// FileClaim godoc
// @ID          fileClaim
// @Summary     File a claim
// @Description Appends a new OPEN claim to an ACTIVE record.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Claims
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       code             path    string  true  "Warranty code"  example(W-9F2C41A07D13)
// @Param       body             body    handlers.FileClaimRequest  true  "Claim payload"
//
// @Success     201  {object}  handlers.ClaimResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Warranty not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not active, terminal, duplicate, or concurrent update"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /warranties/{code}/claims [post]
func (h *Handlers) FileClaim(c *gin.Context) {
	ctx := c.Request.Context()
	code := services.NormalizeCode(c.Param("code"))

	var req FileClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "claimNumber and issueDescription required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := idempotencyKey(c)
	if idemKey != "" {
		if db := h.claimDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, currentUser, code, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetClaimByID(ctx, db, rec.ClaimID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, rec.Status, ClaimResponse{Claim: prev})
					return
				}
			}
		}
	}

	claim, err := h.claimSvc.File(ctx, code, req.ClaimNumber, req.IssueDescription, currentUser)
	if err != nil {
		h.failClaim(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.claimDB(); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, currentUser, code, idemKey, claim.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, ClaimResponse{Claim: claim})
}

// ListClaims godoc
// @ID          listClaims
// @Summary     List a record's claims
// @Description Returns all claims of the record in filing order.
// @Tags        Claims
// @Produce     json
//
// @Param       code  path  string  true  "Warranty code"  example(W-9F2C41A07D13)
//
// @Success     200  {object} handlers.ListClaimsResponse
// @Failure     404  {object} handlers.ErrorResponse "Warranty not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code}/claims [get]
func (h *Handlers) ListClaims(c *gin.Context) {
	claims, err := h.claimSvc.List(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrWarrantyNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "warranty not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListClaimsResponse{Claims: claims})
}

// GetClaim godoc
// @ID          getClaim
// @Summary     Fetch a claim
// @Description Returns one claim with its documents, addressed by warranty code and claim number.
// @Tags        Claims
// @Produce     json
//
// @Param       code         path  string  true  "Warranty code"  example(W-9F2C41A07D13)
// @Param       claimNumber  path  string  true  "Claim number"   example(C-2025-0001)
//
// @Success     200  {object} handlers.ClaimResponse
// @Failure     404  {object} handlers.ErrorResponse "Warranty or claim not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code}/claims/{claimNumber} [get]
func (h *Handlers) GetClaim(c *gin.Context) {
	claim, err := h.claimSvc.Get(c.Request.Context(), c.Param("code"), c.Param("claimNumber"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWarrantyNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "warranty not found")
		case errors.Is(err, services.ErrClaimNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "claim not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ClaimResponse{Claim: claim})
}

// TransitionClaim godoc
// @ID          transitionClaim
// @Summary     Move a claim along the review workflow
// @Description Applies a workflow transition. Entering RESOLVED requires resolutionType; entering RESOLVED or CANCELLED stamps the resolution time.
// @Tags        Claims
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID    header  string  false "Acting user (demo header)"  example(agent-7)
// @Param       code         path    string  true  "Warranty code"  example(W-9F2C41A07D13)
// @Param       claimNumber  path    string  true  "Claim number"   example(C-2025-0001)
// @Param       body         body    handlers.TransitionClaimRequest  true  "Transition payload"
//
// @Success     200  {object} handlers.ClaimResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Warranty or claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Invalid transition or concurrent update"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code}/claims/{claimNumber}/transition [post]
func (h *Handlers) TransitionClaim(c *gin.Context) {
	var req TransitionClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	to := domain.ClaimStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	rt := domain.ResolutionType(strings.ToUpper(strings.TrimSpace(req.ResolutionType)))

	claim, err := h.claimSvc.Transition(
		c.Request.Context(),
		c.Param("code"), c.Param("claimNumber"),
		to, userID(c), req.ResolutionNotes, rt,
	)
	if err != nil {
		h.failClaim(c, err)
		return
	}
	ok(c, http.StatusOK, ClaimResponse{Claim: claim})
}

// AttachClaimDocument godoc
// @ID          attachClaimDocument
// @Summary     Attach a document to a claim
// @Description Appends an attachment reference. Documents are append-only; terminal claims refuse new attachments.
// @Tags        Claims
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID    header  string  false "Acting user (demo header)"  example(user123)
// @Param       code         path    string  true  "Warranty code"  example(W-9F2C41A07D13)
// @Param       claimNumber  path    string  true  "Claim number"   example(C-2025-0001)
// @Param       body         body    handlers.AttachDocumentRequest  true  "Attachment payload"
//
// @Success     201  {object} handlers.ClaimResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Warranty or claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Claim already terminal or concurrent update"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /warranties/{code}/claims/{claimNumber}/documents [post]
func (h *Handlers) AttachClaimDocument(c *gin.Context) {
	var req AttachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "url required")
		return
	}

	claim, err := h.claimSvc.AttachDocument(
		c.Request.Context(),
		c.Param("code"), c.Param("claimNumber"),
		req.URL, req.Label, userID(c),
	)
	if err != nil {
		h.failClaim(c, err)
		return
	}
	ok(c, http.StatusCreated, ClaimResponse{Claim: claim})
}

//
// Helpers
//

// failClaim translates claim-service errors into the HTTP taxonomy shared by
// the filing, transition, and attachment endpoints.
func (h *Handlers) failClaim(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWarrantyNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "warranty not found")
	case errors.Is(err, services.ErrClaimNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "claim not found")
	case errors.Is(err, services.ErrEmptyClaimNumber),
		errors.Is(err, services.ErrEmptyIssue),
		errors.Is(err, services.ErrMissingDocumentURL),
		errors.Is(err, services.ErrMissingResolutionType),
		errors.Is(err, services.ErrInvalidResolutionType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateClaimNumber):
		fail(c, http.StatusConflict, ErrCodeDuplicateClaim, err.Error())
	case errors.Is(err, services.ErrWarrantyTerminal), errors.Is(err, services.ErrClaimTerminal):
		fail(c, http.StatusConflict, ErrCodeTerminalState, err.Error())
	case errors.Is(err, services.ErrNotActive):
		fail(c, http.StatusConflict, ErrCodeNotActive, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// idempotencyKey extracts an idempotency key if an upstream middleware has
// already validated/stashed it. The fallback behavior reads the
// "Idempotency-Key" header directly when no dedicated middleware exists.
func idempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}

// claimDB exposes the concrete service's DB handle for idempotency bookkeeping;
// nil when the handler was wired with a non-default implementation.
func (h *Handlers) claimDB() *gorm.DB {
	if svc, ok := h.claimSvc.(*services.ClaimService); ok {
		return svc.DB
	}
	return nil
}
