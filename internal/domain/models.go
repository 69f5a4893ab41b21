// Package domain defines the persistence models for warranty coverage records
// and their nested claims. These types are mapped with GORM and form the core
// data layer of the warranty engine.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// WarrantyRecord represents the coverage issued for a single purchased unit.
// The record owns its claims exclusively: claims have no lifecycle of their
// own and are always addressed through the parent record.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - WarrantyCode: externally visible identifier, globally unique and
//     immutable once issued. The unique index here is the authoritative
//     uniqueness guard; the advisory registry only narrows the race window.
//   - SerialNumber: optional manufacturer serial; indexed but NOT unique
//     (the same serial may recur across products).
//   - ProductRef / UserRef / OrderRef / LineItemID: weak back-references to
//     other aggregates. Never cascaded, never dereferenced by this engine.
//   - ActivationDate / StartDate / EndDate: the coverage window. StartDate
//     must not exceed EndDate.
//   - DurationDays: derived from the window, recomputed on every write.
//   - Status / IsActive: lifecycle state; IsActive is a derived convenience
//     flag kept consistent by Normalize.
//   - LastClaimAt: derived, max(claim.SubmittedAt) over all claims.
//   - Meta: open string-to-string annotations owned by calling collaborators.
//   - Version: optimistic-concurrency token. Every mutating operation writes
//     conditionally on the version it read.
type WarrantyRecord struct {
	ID           string `json:"id"           gorm:"type:char(36);primaryKey"`
	WarrantyCode string `json:"warrantyCode" gorm:"type:varchar(64);not null;uniqueIndex:ux_warranty_code"`
	SerialNumber string `json:"serialNumber,omitempty" gorm:"type:varchar(128);index:idx_warranty_serial"`
	BatchNumber  string `json:"batchNumber,omitempty"  gorm:"type:varchar(128)"`

	ProductRef string `json:"product"              gorm:"type:varchar(64);not null;index:idx_warranty_product"`
	UserRef    string `json:"user,omitempty"       gorm:"type:varchar(64);index:idx_warranty_user"`
	OrderRef   string `json:"order,omitempty"      gorm:"type:varchar(64);index:idx_warranty_order"`
	LineItemID string `json:"lineItemId,omitempty" gorm:"type:varchar(64)"`

	ActivationDate time.Time `json:"activationDate" gorm:"not null"`
	StartDate      time.Time `json:"startDate"      gorm:"not null"`
	EndDate        time.Time `json:"endDate"        gorm:"not null"`
	DurationDays   int       `json:"durationDays"   gorm:"not null"`

	Status       WarrantyStatus `json:"status"       gorm:"type:varchar(24);not null;index:idx_warranty_status"`
	CoverageType CoverageType   `json:"coverageType" gorm:"type:varchar(24);not null;default:'STANDARD'"`

	VoidReason         string `json:"voidReason,omitempty"         gorm:"type:text"`
	CancellationReason string `json:"cancellationReason,omitempty" gorm:"type:text"`

	IsActive    bool       `json:"isActive"`
	LastClaimAt *time.Time `json:"lastClaimAt,omitempty"`

	Meta datatypes.JSONType[map[string]string] `json:"meta"`

	Version   int64     `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Claims are returned in filing order (SubmittedAt ascending).
	Claims []Claim `json:"claims" gorm:"foreignKey:WarrantyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for WarrantyRecord.
func (WarrantyRecord) TableName() string { return "warranty_records" }

// MetaMap returns the open annotation map, never nil.
func (w *WarrantyRecord) MetaMap() map[string]string {
	m := w.Meta.Data()
	if m == nil {
		return map[string]string{}
	}
	return m
}

// Claim represents a single reported issue filed against a coverage record.
// Claim numbers are unique within their parent record only; global uniqueness
// is a collaborator concern.
//
// Once a claim reaches a terminal status (RESOLVED or CANCELLED) it becomes
// immutable apart from UpdatedBy; its documents list is append-only and is
// frozen together with the claim to preserve resolution-time evidence.
type Claim struct {
	ID          string `json:"id"          gorm:"type:char(36);primaryKey"`
	WarrantyID  string `json:"-"           gorm:"type:char(36);not null;uniqueIndex:ux_claim_warranty_number,priority:1;index:idx_claim_warranty"`
	ClaimNumber string `json:"claimNumber" gorm:"type:varchar(64);not null;uniqueIndex:ux_claim_warranty_number,priority:2"`

	Status      ClaimStatus `json:"status"      gorm:"type:varchar(16);not null"`
	SubmittedAt time.Time   `json:"submittedAt" gorm:"not null;index:idx_claim_submitted"`
	ResolvedAt  *time.Time  `json:"resolvedAt,omitempty"`

	IssueDescription string         `json:"issueDescription"          gorm:"type:text;not null"`
	ResolutionNotes  string         `json:"resolutionNotes,omitempty" gorm:"type:text"`
	ResolutionType   ResolutionType `json:"resolutionType,omitempty"  gorm:"type:varchar(16)"`

	CreatedBy string `json:"createdBy,omitempty" gorm:"type:varchar(64)"`
	UpdatedBy string `json:"updatedBy,omitempty" gorm:"type:varchar(64)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Documents are append-only attachment references, in upload order.
	Documents []ClaimDocument `json:"documents" gorm:"foreignKey:ClaimID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Claim.
func (Claim) TableName() string { return "claims" }

// ClaimDocument is an attachment reference recorded against a claim. The
// engine stores only the URL and label; the blob itself lives with an
// external storage collaborator.
type ClaimDocument struct {
	ID         string    `json:"-"          gorm:"type:char(36);primaryKey"`
	ClaimID    string    `json:"-"          gorm:"type:char(36);not null;index:idx_document_claim"`
	URL        string    `json:"url"        gorm:"type:text;not null"`
	Label      string    `json:"label"      gorm:"type:varchar(255)"`
	UploadedAt time.Time `json:"uploadedAt" gorm:"not null"`
}

// TableName returns the database table name for ClaimDocument.
func (ClaimDocument) TableName() string { return "claim_documents" }
