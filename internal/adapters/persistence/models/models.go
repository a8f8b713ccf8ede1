package models

import (
	"fmt"
	"time"

	"assurance-claims/internal/core/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Policies
// ============================================================

// Policy is one insurance contract (table policies)
type Policy struct {
	ID              uint                         `gorm:"primaryKey" json:"id"`
	PolicyNumber    string                       `gorm:"size:50;uniqueIndex;not null" json:"policy_number"`
	UserID          uint                         `gorm:"not null;index:idx_policies_user_status" json:"user_id"`
	VehicleID       *string                      `gorm:"size:64;index" json:"vehicle_id"`
	InsuranceType   domain.InsuranceType         `gorm:"size:20;not null" json:"insurance_type"`
	StartDate       time.Time                    `gorm:"not null" json:"start_date"`
	EndDate         time.Time                    `gorm:"not null;index" json:"end_date"`
	PremiumAmount   float64                      `gorm:"type:decimal(15,2);not null" json:"premium_amount"`
	CoverageDetails string                       `gorm:"type:text;not null" json:"coverage_details"`
	CoverageLimit   *float64                     `gorm:"type:decimal(15,2)" json:"coverage_limit"`
	Deductible      float64                      `gorm:"type:decimal(15,2);default:0" json:"deductible"`
	Status          domain.PolicyStatus          `gorm:"size:20;not null;default:'pending';index:idx_policies_user_status" json:"status"`
	PaymentStatus   domain.PremiumPaymentStatus  `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	PaymentMethod   *domain.PremiumPaymentMethod `gorm:"size:20" json:"payment_method"`
	RenewalDate     *time.Time                   `json:"renewal_date"`
	Notes           string                       `gorm:"type:text" json:"notes"`
	ApprovedBy      *uint                        `json:"approved_by"`
	ApprovedAt      *time.Time                   `json:"approved_at"`
	CreatedAt       time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt               `gorm:"index" json:"-"`
}

func (Policy) TableName() string {
	return "policies"
}

// IsActive reports whether the policy covers now
func (p *Policy) IsActive(now time.Time) bool {
	return domain.IsPolicyActive(p.Status, p.StartDate, p.EndDate, now)
}

// IsExpired reports whether the coverage window has ended, whatever the stored status
func (p *Policy) IsExpired(now time.Time) bool {
	return p.EndDate.Before(now)
}

// PolicyResponse DTO
type PolicyResponse struct {
	ID              uint                         `json:"id"`
	PolicyNumber    string                       `json:"policy_number"`
	UserID          uint                         `json:"user_id"`
	VehicleID       *string                      `json:"vehicle_id"`
	InsuranceType   domain.InsuranceType         `json:"insurance_type"`
	StartDate       time.Time                    `json:"start_date"`
	EndDate         time.Time                    `json:"end_date"`
	PremiumAmount   float64                      `json:"premium_amount"`
	CoverageDetails string                       `json:"coverage_details"`
	CoverageLimit   *float64                     `json:"coverage_limit"`
	Deductible      float64                      `json:"deductible"`
	Status          domain.PolicyStatus          `json:"status"`
	IsActive        bool                         `json:"is_active"`
	IsExpired       bool                         `json:"is_expired"`
	PaymentStatus   domain.PremiumPaymentStatus  `json:"payment_status"`
	PaymentMethod   *domain.PremiumPaymentMethod `json:"payment_method"`
	RenewalDate     *time.Time                   `json:"renewal_date"`
	Notes           string                       `json:"notes"`
	ApprovedBy      *uint                        `json:"approved_by"`
	ApprovedAt      *time.Time                   `json:"approved_at"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// ToResponse converts the policy to its API shape, deriving the time-dependent flags at now
func (p *Policy) ToResponse(now time.Time) *PolicyResponse {
	return &PolicyResponse{
		ID:              p.ID,
		PolicyNumber:    p.PolicyNumber,
		UserID:          p.UserID,
		VehicleID:       p.VehicleID,
		InsuranceType:   p.InsuranceType,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		PremiumAmount:   p.PremiumAmount,
		CoverageDetails: p.CoverageDetails,
		CoverageLimit:   p.CoverageLimit,
		Deductible:      p.Deductible,
		Status:          p.Status,
		IsActive:        p.IsActive(now),
		IsExpired:       p.IsExpired(now),
		PaymentStatus:   p.PaymentStatus,
		PaymentMethod:   p.PaymentMethod,
		RenewalDate:     p.RenewalDate,
		Notes:           p.Notes,
		ApprovedBy:      p.ApprovedBy,
		ApprovedAt:      p.ApprovedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ============================================================
// Claims
// ============================================================

// IncidentLocation is where the incident happened
type IncidentLocation struct {
	Address   string   `gorm:"size:255;not null" json:"address"`
	City      string   `gorm:"size:100" json:"city,omitempty"`
	Country   string   `gorm:"size:100" json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// InvolvedParty is a person involved in the incident
type InvolvedParty struct {
	Name    string           `json:"name"`
	Contact string           `json:"contact,omitempty"`
	Email   string           `json:"email,omitempty"`
	Role    domain.PartyRole `json:"role"`
}

// FraudDetection is the latest fraud evaluation; Score is nil until one runs
type FraudDetection struct {
	Score      *int                        `json:"score"`
	Flags      datatypes.JSONSlice[string] `gorm:"type:json" json:"flags"`
	ReviewedBy *uint                       `json:"reviewed_by"`
	ReviewedAt *time.Time                  `json:"reviewed_at"`
	Notes      string                      `gorm:"type:text" json:"notes"`
}

// PaymentDetails is the settlement record; PaidAt is nil until the claim is processed
type PaymentDetails struct {
	Method    *domain.SettlementMethod `gorm:"size:20" json:"method"`
	Reference *string                  `gorm:"size:100" json:"reference"`
	PaidAt    *time.Time               `json:"paid_at"`
	Amount    *float64                 `gorm:"type:decimal(15,2)" json:"amount"`
}

// Claim is one reported incident against a policy (table claims)
type Claim struct {
	ID                 uint                               `gorm:"primaryKey" json:"id"`
	ClaimNumber        string                             `gorm:"size:50;uniqueIndex;not null" json:"claim_number"`
	PolicyID           uint                               `gorm:"not null;index" json:"policy_id"`
	UserID             uint                               `gorm:"not null;index:idx_claims_user_status" json:"user_id"`
	VehicleID          *string                            `gorm:"size:64;index" json:"vehicle_id"`
	IncidentType       domain.IncidentType                `gorm:"size:30;not null" json:"incident_type"`
	IncidentDate       time.Time                          `gorm:"not null;index" json:"incident_date"`
	Location           IncidentLocation                   `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Description        string                             `gorm:"type:text;not null" json:"description"`
	EstimatedAmount    float64                            `gorm:"type:decimal(15,2);not null" json:"estimated_amount"`
	ApprovedAmount     *float64                           `gorm:"type:decimal(15,2)" json:"approved_amount"`
	Status             domain.ClaimStatus                 `gorm:"size:20;not null;default:'draft';index:idx_claims_user_status;index:idx_claims_status_priority" json:"status"`
	Priority           domain.Priority                    `gorm:"size:10;not null;default:'medium';index:idx_claims_status_priority" json:"priority"`
	InvolvedParties    datatypes.JSONSlice[InvolvedParty] `gorm:"type:json" json:"involved_parties"`
	IsAmicable         bool                               `gorm:"default:false" json:"is_amicable"`
	PoliceReportNumber *string                            `gorm:"size:50" json:"police_report_number"`
	Fraud              FraudDetection                     `gorm:"embedded;embeddedPrefix:fraud_" json:"-"`
	ReviewedBy         *uint                              `json:"reviewed_by"`
	ReviewedAt         *time.Time                         `json:"reviewed_at"`
	RejectionReason    *string                            `gorm:"type:text" json:"rejection_reason"`
	Payment            PaymentDetails                     `gorm:"embedded;embeddedPrefix:payment_" json:"-"`
	Notes              string                             `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time                          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt                     `gorm:"index" json:"-"`
}

func (Claim) TableName() string {
	return "claims"
}

// HasFraudEvaluation reports whether a fraud evaluation has been recorded
func (c *Claim) HasFraudEvaluation() bool {
	return c.Fraud.Score != nil
}

// IsPaid reports whether the settlement record is present
func (c *Claim) IsPaid() bool {
	return c.Payment.PaidAt != nil
}

// ClaimResponse DTO
type ClaimResponse struct {
	ID                 uint                `json:"id"`
	ClaimNumber        string              `json:"claim_number"`
	PolicyID           uint                `json:"policy_id"`
	UserID             uint                `json:"user_id"`
	VehicleID          *string             `json:"vehicle_id"`
	IncidentType       domain.IncidentType `json:"incident_type"`
	IncidentDate       time.Time           `json:"incident_date"`
	DaysSinceIncident  int                 `json:"days_since_incident"`
	Location           IncidentLocation    `json:"location"`
	Description        string              `json:"description"`
	EstimatedAmount    float64             `json:"estimated_amount"`
	ApprovedAmount     *float64            `json:"approved_amount"`
	Status             domain.ClaimStatus  `json:"status"`
	Priority           domain.Priority     `json:"priority"`
	InvolvedParties    []InvolvedParty     `json:"involved_parties"`
	IsAmicable         bool                `json:"is_amicable"`
	PoliceReportNumber *string             `json:"police_report_number"`
	FraudDetection     *FraudDetection     `json:"fraud_detection,omitempty"`
	ReviewedBy         *uint               `json:"reviewed_by"`
	ReviewedAt         *time.Time          `json:"reviewed_at"`
	RejectionReason    *string             `json:"rejection_reason"`
	PaymentDetails     *PaymentDetails     `json:"payment_details,omitempty"`
	Notes              string              `json:"notes"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ToResponse converts the claim to its API shape
func (c *Claim) ToResponse(now time.Time) *ClaimResponse {
	resp := &ClaimResponse{
		ID:                 c.ID,
		ClaimNumber:        c.ClaimNumber,
		PolicyID:           c.PolicyID,
		UserID:             c.UserID,
		VehicleID:          c.VehicleID,
		IncidentType:       c.IncidentType,
		IncidentDate:       c.IncidentDate,
		DaysSinceIncident:  int(now.Sub(c.IncidentDate).Hours() / 24),
		Location:           c.Location,
		Description:        c.Description,
		EstimatedAmount:    c.EstimatedAmount,
		ApprovedAmount:     c.ApprovedAmount,
		Status:             c.Status,
		Priority:           c.Priority,
		InvolvedParties:    c.InvolvedParties,
		IsAmicable:         c.IsAmicable,
		PoliceReportNumber: c.PoliceReportNumber,
		ReviewedBy:         c.ReviewedBy,
		ReviewedAt:         c.ReviewedAt,
		RejectionReason:    c.RejectionReason,
		Notes:              c.Notes,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}

	if resp.InvolvedParties == nil {
		resp.InvolvedParties = []InvolvedParty{}
	}
	if c.HasFraudEvaluation() {
		fraud := c.Fraud
		resp.FraudDetection = &fraud
	}
	if c.IsPaid() {
		payment := c.Payment
		resp.PaymentDetails = &payment
	}

	return resp
}

// ClaimSequence holds the last claim number issued for a year (table claim_sequences)
type ClaimSequence struct {
	Year  int   `gorm:"primaryKey;autoIncrement:false" json:"year"`
	Value int64 `gorm:"not null;default:0" json:"value"`
}

func (ClaimSequence) TableName() string {
	return "claim_sequences"
}

// ClaimNumberPrefix starts every generated claim number. Callers cannot choose numbers in this range.
const ClaimNumberPrefix = "CONST-"

// ClaimNumberYearPrefix is the shared prefix of the generated numbers of one year
func ClaimNumberYearPrefix(year int) string {
	return fmt.Sprintf("%s%d-", ClaimNumberPrefix, year)
}

// FormatClaimNumber renders a generated claim number, CONST-<year>-<6-digit seq>
func FormatClaimNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%06d", ClaimNumberYearPrefix(year), seq)
}

// ============================================================
// Audit trail
// ============================================================

// AuditEntry is one recorded mutation of a policy or claim (table audit_entries)
type AuditEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EntityType  string    `gorm:"size:10;not null;index:idx_audit_entity" json:"entity_type"`
	EntityID    uint      `gorm:"not null;index:idx_audit_entity" json:"entity_id"`
	Action      string    `gorm:"size:30;not null" json:"action"`
	FromStatus  string    `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus    string    `gorm:"size:20" json:"to_status,omitempty"`
	Amount      *float64  `gorm:"type:decimal(15,2)" json:"amount"`
	Description string    `gorm:"type:text" json:"description"`
	PerformedBy uint      `gorm:"not null" json:"performed_by"`
	IPAddress   string    `gorm:"size:50" json:"ip_address"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}

// Audit entity types
const (
	EntityPolicy = "POLICY"
	EntityClaim  = "CLAIM"
)

// Audit actions
const (
	ActionCreate         = "CREATE"
	ActionUpdate         = "UPDATE"
	ActionDelete         = "DELETE"
	ActionApprove        = "APPROVE"
	ActionCancel         = "CANCEL"
	ActionExpire         = "EXPIRE"
	ActionSubmit         = "SUBMIT"
	ActionReviewApprove  = "REVIEW_APPROVE"
	ActionReviewReject   = "REVIEW_REJECT"
	ActionFraudEvaluate  = "FRAUD_EVALUATE"
	ActionFraudEscalate  = "FRAUD_ESCALATE"
	ActionFraudSkipped   = "FRAUD_ESCALATION_SKIPPED"
	ActionPaymentProcess = "PAYMENT"
)

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all tables owned by this service
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Policy{},
		&Claim{},
		&ClaimSequence{},
		&AuditEntry{},
	)
}
