package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"
	"assurance-claims/internal/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Claim service errors
var (
	ErrClaimNotFound           = domain.NewError(domain.ErrNotFound, "claim not found")
	ErrClaimAccessDenied       = domain.NewError(domain.ErrForbidden, "you do not have access to this claim")
	ErrNotClaimOwner           = domain.NewError(domain.ErrForbidden, "only the claim owner can submit it")
	ErrPriorityStaffOnly       = domain.NewError(domain.ErrForbidden, "only staff can change claim priority")
	ErrClaimLocked             = domain.NewError(domain.ErrInvalidState, "claim cannot be modified in its current status")
	ErrClaimNotDraft           = domain.NewError(domain.ErrInvalidState, "only draft claims can be submitted")
	ErrClaimNotReviewable      = domain.NewError(domain.ErrInvalidState, "claim can only be reviewed when submitted or under review")
	ErrClaimNotApproved        = domain.NewError(domain.ErrInvalidState, "only approved claims can be paid")
	ErrSubmissionWindowExpired = domain.NewError(domain.ErrWindowExpired, "claims must be submitted within 30 days of the incident")
	ErrClaimNumberTaken        = domain.NewError(domain.ErrConflict, "claim number already exists")
	ErrClaimNumberReserved     = domain.NewError(domain.ErrValidation, "claim numbers starting with "+models.ClaimNumberPrefix+" are assigned automatically")
)

// maxClaimNumberAttempts bounds how many generated numbers Create tries before giving up
const maxClaimNumberAttempts = 5

var claimNumberPattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,50}$`)

// ClaimService runs the claim workflow: draft, submitted, under_review, approved or rejected, processed
type ClaimService struct {
	settings
	claimRepo   repositories.ClaimRepository
	sequencer   repositories.ClaimSequencer
	eligibility *EligibilityChecker
	assets      AssetLookup
	fraud       *FraudEvaluator
	settlement  SettlementCalculator
}

// NewClaimService creates a new claim service
func NewClaimService(
	claimRepo repositories.ClaimRepository,
	policyRepo repositories.PolicyRepository,
	sequencer repositories.ClaimSequencer,
	assets AssetLookup,
	opts ...Option,
) *ClaimService {
	s := newSettings(opts)
	return &ClaimService{
		settings:    s,
		claimRepo:   claimRepo,
		sequencer:   sequencer,
		eligibility: NewEligibilityChecker(policyRepo, s.now),
		assets:      assets,
		fraud:       NewFraudEvaluator(),
	}
}

// LocationInput is the incident location
type LocationInput struct {
	Address   string   `json:"address"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (l LocationInput) toModel() (models.IncidentLocation, error) {
	if strings.TrimSpace(l.Address) == "" {
		return models.IncidentLocation{}, domain.Validation("incident address is required")
	}
	if l.Latitude != nil && (*l.Latitude < -90 || *l.Latitude > 90) {
		return models.IncidentLocation{}, domain.Validation("latitude must be between -90 and 90")
	}
	if l.Longitude != nil && (*l.Longitude < -180 || *l.Longitude > 180) {
		return models.IncidentLocation{}, domain.Validation("longitude must be between -180 and 180")
	}
	return models.IncidentLocation{
		Address:   l.Address,
		City:      l.City,
		Country:   l.Country,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}, nil
}

func validateParties(parties []models.InvolvedParty) error {
	for _, p := range parties {
		if strings.TrimSpace(p.Name) == "" {
			return domain.Validation("involved party name is required")
		}
		if !p.Role.Valid() {
			return domain.Validation("invalid involved party role")
		}
	}
	return nil
}

// CreateClaimInput represents create claim input.
// Status is not accepted: new claims always start as draft.
type CreateClaimInput struct {
	ClaimNumber        string                 `json:"claim_number,omitempty"`
	PolicyID           uint                   `json:"policy_id"`
	VehicleID          string                 `json:"vehicle_id,omitempty"`
	IncidentType       domain.IncidentType    `json:"incident_type"`
	IncidentDate       time.Time              `json:"incident_date"`
	Location           LocationInput          `json:"location"`
	Description        string                 `json:"description"`
	EstimatedAmount    float64                `json:"estimated_amount"`
	Priority           domain.Priority        `json:"priority,omitempty"`
	InvolvedParties    []models.InvolvedParty `json:"involved_parties,omitempty"`
	IsAmicable         bool                   `json:"is_amicable,omitempty"`
	PoliceReportNumber string                 `json:"police_report_number,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
}

// Validate checks the input shape against now
func (in *CreateClaimInput) Validate(now time.Time) error {
	if in.ClaimNumber != "" && !claimNumberPattern.MatchString(in.ClaimNumber) {
		return domain.Validation("claim number must be 3-50 letters, digits or dashes")
	}
	if strings.HasPrefix(strings.ToUpper(in.ClaimNumber), models.ClaimNumberPrefix) {
		return ErrClaimNumberReserved
	}
	if in.PolicyID == 0 {
		return domain.Validation("policy id is required")
	}
	if !in.IncidentType.Valid() {
		return domain.Validation("invalid incident type")
	}
	if in.IncidentDate.IsZero() {
		return domain.Validation("incident date is required")
	}
	if in.IncidentDate.After(now) {
		return domain.Validation("incident date cannot be in the future")
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.Validation("description is required")
	}
	if in.EstimatedAmount < 0 {
		return domain.Validation("estimated amount must be positive")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return domain.Validation("invalid priority")
	}
	return validateParties(in.InvolvedParties)
}

// Create files a draft claim after checking the policy is the reporter's and active
func (s *ClaimService) Create(ctx context.Context, input *CreateClaimInput, reportingUserID uint, ipAddress string) (*models.Claim, error) {
	now := s.now()

	if err := input.Validate(now); err != nil {
		return nil, err
	}
	location, err := input.Location.toModel()
	if err != nil {
		return nil, err
	}

	policy, err := s.eligibility.CheckClaimEligibility(ctx, input.PolicyID, reportingUserID)
	if err != nil {
		return nil, err
	}

	vehicleID := policy.VehicleID
	if input.VehicleID != "" {
		if err := s.checkAsset(ctx, input.VehicleID); err != nil {
			return nil, err
		}
		v := input.VehicleID
		vehicleID = &v
	}

	claim := &models.Claim{
		PolicyID:        policy.ID,
		UserID:          reportingUserID,
		VehicleID:       vehicleID,
		IncidentType:    input.IncidentType,
		IncidentDate:    input.IncidentDate,
		Location:        location,
		Description:     input.Description,
		EstimatedAmount: input.EstimatedAmount,
		Status:          domain.ClaimDraft,
		Priority:        domain.PriorityMedium,
		InvolvedParties: input.InvolvedParties,
		IsAmicable:      input.IsAmicable,
		Notes:           input.Notes,
	}
	if input.Priority != "" {
		claim.Priority = input.Priority
	}
	if input.PoliceReportNumber != "" {
		report := input.PoliceReportNumber
		claim.PoliceReportNumber = &report
	}

	// A generated number can lose an insert race; draw another one
	for attempt := 1; ; attempt++ {
		claim.ClaimNumber, err = s.allocateClaimNumber(ctx, input.ClaimNumber, now)
		if err != nil {
			return nil, err
		}
		err = s.claimRepo.Create(ctx, claim)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		if input.ClaimNumber != "" || attempt == maxClaimNumberAttempts {
			return nil, ErrClaimNumberTaken
		}
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    claim.ID,
		Action:      models.ActionCreate,
		ToStatus:    string(claim.Status),
		Amount:      &claim.EstimatedAmount,
		Description: fmt.Sprintf("claim filed against policy %s", policy.PolicyNumber),
		PerformedBy: reportingUserID,
		IPAddress:   ipAddress,
	})
	s.metrics.IncClaimCreated()

	return claim, nil
}

// allocateClaimNumber returns the requested number when free, else the next free
// CONST-<year>-<6-digit seq>. Sequence values whose number is already stored are skipped.
func (s *ClaimService) allocateClaimNumber(ctx context.Context, requested string, now time.Time) (string, error) {
	if requested != "" {
		exists, err := s.claimRepo.ExistsByClaimNumber(ctx, requested)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrClaimNumberTaken
		}
		return requested, nil
	}

	year := now.Year()
	for attempt := 0; attempt < maxClaimNumberAttempts; attempt++ {
		seq, err := s.sequencer.Next(ctx, year)
		if err != nil {
			return "", err
		}
		candidate := models.FormatClaimNumber(year, seq)
		exists, err := s.claimRepo.ExistsByClaimNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		log.Printf("⚠️ Claim number %s already stored, drawing the next one", candidate)
	}
	return "", ErrClaimNumberTaken
}

func (s *ClaimService) checkAsset(ctx context.Context, vehicleID string) error {
	if s.assets == nil {
		return nil
	}

	start := time.Now()
	exists, err := s.assets.AssetExists(ctx, vehicleID)
	s.metrics.ObserveAssetLookup(start)
	if err != nil {
		log.Printf("⚠️ Vehicle lookup failed for %s: %v", vehicleID, err)
		return ErrVehicleNotFound
	}
	if !exists {
		return ErrVehicleNotFound
	}
	return nil
}

// GetByID gets a claim visible to the caller
func (s *ClaimService) GetByID(ctx context.Context, id, callerID uint, role domain.Role) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClaimNotFound)
	}
	if claim.UserID != callerID && !role.IsStaff() {
		return nil, ErrClaimAccessDenied
	}
	return claim, nil
}

// List lists claims matching filter, newest first
func (s *ClaimService) List(ctx context.Context, filter repositories.ClaimFilter, params pagination.Params) (*pagination.Page[*models.Claim], error) {
	claims, total, err := s.claimRepo.List(ctx, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(claims, params, total), nil
}

// ListByOwner lists every claim filed by ownerID
func (s *ClaimService) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Claim, error) {
	claims, _, err := s.claimRepo.List(ctx, repositories.ClaimFilter{UserID: ownerID}, 0, 0)
	return claims, err
}

// UpdateClaimInput represents update claim input.
// Status, review, fraud and payment data change only through their own operations.
type UpdateClaimInput struct {
	IncidentType       *domain.IncidentType   `json:"incident_type,omitempty"`
	IncidentDate       *time.Time             `json:"incident_date,omitempty"`
	Location           *LocationInput         `json:"location,omitempty"`
	Description        *string                `json:"description,omitempty"`
	EstimatedAmount    *float64               `json:"estimated_amount,omitempty"`
	Priority           *domain.Priority       `json:"priority,omitempty"`
	InvolvedParties    []models.InvolvedParty `json:"involved_parties,omitempty"`
	IsAmicable         *bool                  `json:"is_amicable,omitempty"`
	PoliceReportNumber *string                `json:"police_report_number,omitempty"`
	Notes              *string                `json:"notes,omitempty"`
}

// Update edits a claim. Owners and admin/agency staff may edit;
// approved, processed and closed claims are editable by admins only.
func (s *ClaimService) Update(ctx context.Context, id uint, input *UpdateClaimInput, callerID uint, role domain.Role, ipAddress string) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClaimNotFound)
	}
	if claim.UserID != callerID && !role.CanManage() {
		return nil, ErrClaimAccessDenied
	}
	if domain.IsEditLocked(claim.Status) && role != domain.RoleAdmin {
		return nil, ErrClaimLocked
	}

	if input.IncidentType != nil {
		if !input.IncidentType.Valid() {
			return nil, domain.Validation("invalid incident type")
		}
		claim.IncidentType = *input.IncidentType
	}
	if input.IncidentDate != nil {
		if input.IncidentDate.After(s.now()) {
			return nil, domain.Validation("incident date cannot be in the future")
		}
		claim.IncidentDate = *input.IncidentDate
	}
	if input.Location != nil {
		location, err := input.Location.toModel()
		if err != nil {
			return nil, err
		}
		claim.Location = location
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, domain.Validation("description is required")
		}
		claim.Description = *input.Description
	}
	if input.EstimatedAmount != nil {
		if *input.EstimatedAmount < 0 {
			return nil, domain.Validation("estimated amount must be positive")
		}
		claim.EstimatedAmount = *input.EstimatedAmount
	}
	if input.Priority != nil && *input.Priority != claim.Priority {
		if !role.IsStaff() {
			return nil, ErrPriorityStaffOnly
		}
		if !input.Priority.Valid() {
			return nil, domain.Validation("invalid priority")
		}
		claim.Priority = *input.Priority
	}
	if input.InvolvedParties != nil {
		if err := validateParties(input.InvolvedParties); err != nil {
			return nil, err
		}
		claim.InvolvedParties = input.InvolvedParties
	}
	if input.IsAmicable != nil {
		claim.IsAmicable = *input.IsAmicable
	}
	if input.PoliceReportNumber != nil {
		claim.PoliceReportNumber = input.PoliceReportNumber
	}
	if input.Notes != nil {
		claim.Notes = *input.Notes
	}

	if err := s.claimRepo.Update(ctx, claim); err != nil {
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    claim.ID,
		Action:      models.ActionUpdate,
		Description: "claim updated",
		PerformedBy: callerID,
		IPAddress:   ipAddress,
	})

	return claim, nil
}

// Submit moves the owner's draft into the review queue within 30 days of the incident
func (s *ClaimService) Submit(ctx context.Context, id, callerID uint, ipAddress string) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClaimNotFound)
	}
	if claim.UserID != callerID {
		return nil, ErrNotClaimOwner
	}
	if claim.Status != domain.ClaimDraft {
		return nil, ErrClaimNotDraft
	}
	if !domain.WithinSubmissionWindow(claim.IncidentDate, s.now()) {
		return nil, ErrSubmissionWindowExpired
	}

	if err := s.transition(ctx, claim, domain.ClaimSubmitted); err != nil {
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    claim.ID,
		Action:      models.ActionSubmit,
		FromStatus:  string(domain.ClaimDraft),
		ToStatus:    string(claim.Status),
		Description: "claim submitted for review",
		PerformedBy: callerID,
		IPAddress:   ipAddress,
	})
	s.notifier.NotifyClaimSubmitted(claim)

	return claim, nil
}

// ReviewClaimInput represents a review decision
type ReviewClaimInput struct {
	Approved        *bool    `json:"approved"`
	ApprovedAmount  *float64 `json:"approved_amount,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
}

// Review approves or rejects a submitted or under_review claim
func (s *ClaimService) Review(ctx context.Context, id uint, input *ReviewClaimInput, reviewerID uint, ipAddress string) (*models.Claim, error) {
	if input.Approved == nil {
		return nil, domain.Validation("approved decision is required")
	}
	if input.ApprovedAmount != nil && *input.ApprovedAmount < 0 {
		return nil, domain.Validation("approved amount must be positive")
	}

	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClaimNotFound)
	}
	if !domain.IsReviewable(claim.Status) {
		return nil, ErrClaimNotReviewable
	}

	from := claim.Status
	now := s.now()
	claim.ReviewedBy = &reviewerID
	claim.ReviewedAt = &now

	to := domain.ClaimRejected
	action := models.ActionReviewReject
	if *input.Approved {
		to = domain.ClaimApproved
		action = models.ActionReviewApprove
		claim.ApprovedAmount = input.ApprovedAmount
		claim.RejectionReason = nil
	} else {
		claim.ApprovedAmount = nil
		claim.RejectionReason = nil
		if reason := strings.TrimSpace(input.RejectionReason); reason != "" {
			claim.RejectionReason = &reason
		}
	}

	if err := s.transition(ctx, claim, to); err != nil {
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    claim.ID,
		Action:      action,
		FromStatus:  string(from),
		ToStatus:    string(claim.Status),
		Amount:      claim.ApprovedAmount,
		Description: fmt.Sprintf("claim %s", claim.Status),
		PerformedBy: reviewerID,
		IPAddress:   ipAddress,
	})
	s.notifier.NotifyClaimReviewed(claim)

	return claim, nil
}

// EvaluateFraud records a fraud evaluation and applies its escalation rule
func (s *ClaimService) EvaluateFraud(ctx context.Context, id uint, input *FraudInput, reviewerID uint, ipAddress string) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClaimNotFound)
	}

	outcome, err := s.fraud.Evaluate(claim, input, reviewerID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.claimRepo.Update(ctx, claim); err != nil {
		return nil, err
	}

	score := float64(outcome.Disposition.Score)
	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    claim.ID,
		Action:      models.ActionFraudEvaluate,
		Amount:      &score,
		Description: fmt.Sprintf("fraud score %d recorded", outcome.Disposition.Score),
		PerformedBy: reviewerID,
		IPAddress:   ipAddress,
	})

	switch {
	case outcome.Escalated:
		s.record(ctx, &models.AuditEntry{
			EntityType:  models.EntityClaim,
			EntityID:    claim.ID,
			Action:      models.ActionFraudEscalate,
			FromStatus:  string(outcome.FromStatus),
			ToStatus:    string(claim.Status),
			Description: "fraud score above threshold, claim returned to review",
			PerformedBy: reviewerID,
			IPAddress:   ipAddress,
		})
		s.metrics.IncFraudEvaluation("escalated")
		if outcome.FromStatus != claim.Status {
			s.metrics.IncClaimTransition(string(outcome.FromStatus), string(claim.Status))
		}
		s.notifier.NotifyFraudEscalated(claim, outcome.Disposition.Score)
	case outcome.Skipped:
		log.Printf("⚠️ Fraud escalation skipped for claim %s in status %s (score %d)", claim.ClaimNumber, claim.Status, outcome.Disposition.Score)
		s.record(ctx, &models.AuditEntry{
			EntityType:  models.EntityClaim,
			EntityID:    claim.ID,
			Action:      models.ActionFraudSkipped,
			FromStatus:  string(outcome.FromStatus),
			ToStatus:    string(claim.Status),
			Description: fmt.Sprintf("fraud score above threshold, status %s kept", claim.Status),
			PerformedBy: reviewerID,
			IPAddress:   ipAddress,
		})
		s.metrics.IncFraudEvaluation("skipped")
	default:
		s.metrics.IncFraudEvaluation("clear")
	}

	return claim, nil
}

// ProcessPaymentInput represents settlement input
type ProcessPaymentInput struct {
	Method    domain.SettlementMethod `json:"method"`
	Reference string                  `json:"reference,omitempty"`
}

// ProcessPayment settles an approved claim and marks it processed
func (s *ClaimService) ProcessPayment(ctx context.Context, id uint, input *ProcessPaymentInput, processorID uint, ipAddress string) (*models.Claim, error) {
	if !input.Method.Valid() {
		return nil, domain.Validation("invalid payment method")
	}

	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClaimNotFound)
	}
	if claim.Status != domain.ClaimApproved {
		return nil, ErrClaimNotApproved
	}

	now := s.now()
	amount := s.settlement.ComputePayout(claim)
	method := input.Method
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = "PAY-" + uuid.NewString()
	}

	claim.Payment = models.PaymentDetails{
		Method:    &method,
		Reference: &reference,
		PaidAt:    &now,
		Amount:    &amount,
	}

	if err := s.transition(ctx, claim, domain.ClaimProcessed); err != nil {
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    claim.ID,
		Action:      models.ActionPaymentProcess,
		FromStatus:  string(domain.ClaimApproved),
		ToStatus:    string(claim.Status),
		Amount:      &amount,
		Description: fmt.Sprintf("payout by %s, reference %s", method, reference),
		PerformedBy: processorID,
		IPAddress:   ipAddress,
	})
	s.metrics.ObservePayout(amount)
	s.notifier.NotifyClaimPaid(claim)

	return claim, nil
}

// Delete soft deletes a claim and records who removed it
func (s *ClaimService) Delete(ctx context.Context, id, callerID uint, ipAddress string) error {
	if err := s.claimRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrClaimNotFound)
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    id,
		Action:      models.ActionDelete,
		Description: "claim deleted",
		PerformedBy: callerID,
		IPAddress:   ipAddress,
	})

	return nil
}

// History lists the audit trail of a claim, newest first
func (s *ClaimService) History(ctx context.Context, id uint) ([]*models.AuditEntry, error) {
	if s.audit == nil {
		return []*models.AuditEntry{}, nil
	}
	return s.audit.ListByEntity(ctx, models.EntityClaim, id)
}

// transition applies an ordinary status move and persists the claim
func (s *ClaimService) transition(ctx context.Context, claim *models.Claim, to domain.ClaimStatus) error {
	from := claim.Status
	if !domain.CanTransition(from, to) {
		return domain.NewError(domain.ErrInvalidState, fmt.Sprintf("cannot move claim from %s to %s", from, to))
	}

	claim.Status = to
	if err := s.claimRepo.Update(ctx, claim); err != nil {
		claim.Status = from
		return err
	}

	s.metrics.IncClaimTransition(string(from), string(to))
	return nil
}
