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

// Policy service errors
var (
	ErrPolicyNotFound        = domain.NewError(domain.ErrNotFound, "insurance policy not found")
	ErrPolicyAccessDenied    = domain.NewError(domain.ErrForbidden, "you do not have access to this insurance policy")
	ErrPolicyAlreadyActive   = domain.NewError(domain.ErrConflict, "insurance policy is already active")
	ErrDuplicateActivePolicy = domain.NewError(domain.ErrConflict, "an active insurance policy already exists for this vehicle")
	ErrPolicyNumberTaken     = domain.NewError(domain.ErrConflict, "policy number already exists")
	ErrVehicleNotFound       = domain.NewError(domain.ErrNotFound, "vehicle not found or unavailable")
	ErrNoVehicleInsurance    = domain.NewError(domain.ErrNotFound, "no active insurance policy found for this vehicle")
)

var policyNumberPattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,50}$`)

// PolicyService handles the policy lifecycle
type PolicyService struct {
	settings
	policyRepo repositories.PolicyRepository
	assets     AssetLookup
}

// NewPolicyService creates a new policy service
func NewPolicyService(policyRepo repositories.PolicyRepository, assets AssetLookup, opts ...Option) *PolicyService {
	return &PolicyService{
		settings:   newSettings(opts),
		policyRepo: policyRepo,
		assets:     assets,
	}
}

// CreatePolicyInput represents create policy input.
// Status is not accepted: new policies always start pending.
type CreatePolicyInput struct {
	PolicyNumber    string                       `json:"policy_number,omitempty"`
	VehicleID       string                       `json:"vehicle_id,omitempty"`
	InsuranceType   domain.InsuranceType         `json:"insurance_type"`
	StartDate       time.Time                    `json:"start_date"`
	EndDate         time.Time                    `json:"end_date"`
	PremiumAmount   float64                      `json:"premium_amount"`
	CoverageDetails string                       `json:"coverage_details"`
	CoverageLimit   *float64                     `json:"coverage_limit,omitempty"`
	Deductible      float64                      `json:"deductible,omitempty"`
	PaymentStatus   domain.PremiumPaymentStatus  `json:"payment_status,omitempty"`
	PaymentMethod   *domain.PremiumPaymentMethod `json:"payment_method,omitempty"`
	RenewalDate     *time.Time                   `json:"renewal_date,omitempty"`
	Notes           string                       `json:"notes,omitempty"`
}

// Validate checks the input shape
func (in *CreatePolicyInput) Validate() error {
	if in.PolicyNumber != "" && !policyNumberPattern.MatchString(in.PolicyNumber) {
		return domain.Validation("policy number must be 3-50 letters, digits or dashes")
	}
	if !in.InsuranceType.Valid() {
		return domain.Validation("invalid insurance type")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return domain.Validation("start date and end date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return domain.Validation("end date must be on or after start date")
	}
	if in.PremiumAmount < 0 {
		return domain.Validation("premium amount must be positive")
	}
	if strings.TrimSpace(in.CoverageDetails) == "" {
		return domain.Validation("coverage details are required")
	}
	if in.CoverageLimit != nil && *in.CoverageLimit < 0 {
		return domain.Validation("coverage limit must be positive")
	}
	if in.Deductible < 0 {
		return domain.Validation("deductible must be positive")
	}
	if in.PaymentStatus != "" && !in.PaymentStatus.Valid() {
		return domain.Validation("invalid payment status")
	}
	if in.PaymentMethod != nil && !in.PaymentMethod.Valid() {
		return domain.Validation("invalid payment method")
	}
	return nil
}

// Create creates a new pending policy owned by ownerID
func (s *PolicyService) Create(ctx context.Context, input *CreatePolicyInput, ownerID uint, ipAddress string) (*models.Policy, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()

	if input.VehicleID != "" {
		if err := s.checkAsset(ctx, input.VehicleID); err != nil {
			return nil, err
		}

		if err := s.ensureNoActivePolicy(ctx, ownerID, input.VehicleID, now); err != nil {
			return nil, err
		}
	}

	policyNumber, err := s.allocatePolicyNumber(ctx, input.PolicyNumber, now)
	if err != nil {
		return nil, err
	}

	policy := &models.Policy{
		PolicyNumber:    policyNumber,
		UserID:          ownerID,
		InsuranceType:   input.InsuranceType,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		PremiumAmount:   input.PremiumAmount,
		CoverageDetails: input.CoverageDetails,
		CoverageLimit:   input.CoverageLimit,
		Deductible:      input.Deductible,
		Status:          domain.PolicyPending,
		PaymentStatus:   domain.PremiumPending,
		PaymentMethod:   input.PaymentMethod,
		RenewalDate:     input.RenewalDate,
		Notes:           input.Notes,
	}
	if input.VehicleID != "" {
		vehicleID := input.VehicleID
		policy.VehicleID = &vehicleID
	}
	if input.PaymentStatus != "" {
		policy.PaymentStatus = input.PaymentStatus
	}

	if err := s.policyRepo.Create(ctx, policy); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPolicyNumberTaken
		}
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityPolicy,
		EntityID:    policy.ID,
		Action:      models.ActionCreate,
		ToStatus:    string(policy.Status),
		Amount:      &policy.PremiumAmount,
		Description: "insurance policy created",
		PerformedBy: ownerID,
		IPAddress:   ipAddress,
	})
	s.metrics.IncPolicyCreated()

	return policy, nil
}

// ensureNoActivePolicy fails when the owner already has an active, unexpired policy on the vehicle
func (s *PolicyService) ensureNoActivePolicy(ctx context.Context, ownerID uint, vehicleID string, now time.Time) error {
	existing, err := s.policyRepo.FindActiveForAsset(ctx, ownerID, vehicleID, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		return ErrDuplicateActivePolicy
	}
	return nil
}

func (s *PolicyService) allocatePolicyNumber(ctx context.Context, requested string, now time.Time) (string, error) {
	if requested != "" {
		exists, err := s.policyRepo.ExistsByPolicyNumber(ctx, requested)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrPolicyNumberTaken
		}
		return requested, nil
	}

	for attempt := 0; attempt < 3; attempt++ {
		candidate := fmt.Sprintf("POL-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:8]))
		exists, err := s.policyRepo.ExistsByPolicyNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrPolicyNumberTaken
}

// checkAsset confirms the vehicle exists. An unavailable fleet service counts as not found.
func (s *PolicyService) checkAsset(ctx context.Context, vehicleID string) error {
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

// GetByID gets a policy visible to the caller
func (s *PolicyService) GetByID(ctx context.Context, id, callerID uint, role domain.Role) (*models.Policy, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound)
	}
	if policy.UserID != callerID && !role.IsStaff() {
		return nil, ErrPolicyAccessDenied
	}
	return policy, nil
}

// List returns one page of policies matching filter, newest first
func (s *PolicyService) List(ctx context.Context, filter repositories.PolicyFilter, params pagination.Params) (*pagination.Page[*models.Policy], error) {
	policies, total, err := s.policyRepo.List(ctx, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(policies, params, total), nil
}

// ListByOwner lists every policy of ownerID
func (s *PolicyService) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Policy, error) {
	policies, _, err := s.policyRepo.List(ctx, repositories.PolicyFilter{UserID: ownerID}, 0, 0)
	return policies, err
}

// GetVehicleInsurance gets the policy currently covering a vehicle
func (s *PolicyService) GetVehicleInsurance(ctx context.Context, vehicleID string) (*models.Policy, error) {
	policy, err := s.policyRepo.FindActiveByVehicle(ctx, vehicleID, s.now())
	if err != nil {
		return nil, notFound(err, ErrNoVehicleInsurance)
	}
	return policy, nil
}

// UpdatePolicyInput represents update policy input.
// Policy number, status and approval data are not editable.
type UpdatePolicyInput struct {
	VehicleID       *string                      `json:"vehicle_id,omitempty"`
	InsuranceType   *domain.InsuranceType        `json:"insurance_type,omitempty"`
	StartDate       *time.Time                   `json:"start_date,omitempty"`
	EndDate         *time.Time                   `json:"end_date,omitempty"`
	PremiumAmount   *float64                     `json:"premium_amount,omitempty"`
	CoverageDetails *string                      `json:"coverage_details,omitempty"`
	CoverageLimit   *float64                     `json:"coverage_limit,omitempty"`
	Deductible      *float64                     `json:"deductible,omitempty"`
	PaymentStatus   *domain.PremiumPaymentStatus `json:"payment_status,omitempty"`
	PaymentMethod   *domain.PremiumPaymentMethod `json:"payment_method,omitempty"`
	RenewalDate     *time.Time                   `json:"renewal_date,omitempty"`
	Notes           *string                      `json:"notes,omitempty"`
}

// Update edits the terms of a policy. Owners and admin/agency staff only.
func (s *PolicyService) Update(ctx context.Context, id uint, input *UpdatePolicyInput, callerID uint, role domain.Role, ipAddress string) (*models.Policy, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound)
	}
	if policy.UserID != callerID && !role.CanManage() {
		return nil, ErrPolicyAccessDenied
	}

	if input.VehicleID != nil {
		vehicleID := strings.TrimSpace(*input.VehicleID)
		switch {
		case vehicleID == "":
			policy.VehicleID = nil
		case policy.VehicleID == nil || *policy.VehicleID != vehicleID:
			if err := s.checkAsset(ctx, vehicleID); err != nil {
				return nil, err
			}
			policy.VehicleID = &vehicleID
		}
	}
	if input.InsuranceType != nil {
		if !input.InsuranceType.Valid() {
			return nil, domain.Validation("invalid insurance type")
		}
		policy.InsuranceType = *input.InsuranceType
	}
	if input.StartDate != nil {
		policy.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		policy.EndDate = *input.EndDate
	}
	if policy.EndDate.Before(policy.StartDate) {
		return nil, domain.Validation("end date must be on or after start date")
	}
	if input.PremiumAmount != nil {
		if *input.PremiumAmount < 0 {
			return nil, domain.Validation("premium amount must be positive")
		}
		policy.PremiumAmount = *input.PremiumAmount
	}
	if input.CoverageDetails != nil {
		if strings.TrimSpace(*input.CoverageDetails) == "" {
			return nil, domain.Validation("coverage details are required")
		}
		policy.CoverageDetails = *input.CoverageDetails
	}
	if input.CoverageLimit != nil {
		if *input.CoverageLimit < 0 {
			return nil, domain.Validation("coverage limit must be positive")
		}
		policy.CoverageLimit = input.CoverageLimit
	}
	if input.Deductible != nil {
		if *input.Deductible < 0 {
			return nil, domain.Validation("deductible must be positive")
		}
		policy.Deductible = *input.Deductible
	}
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.Valid() {
			return nil, domain.Validation("invalid payment status")
		}
		policy.PaymentStatus = *input.PaymentStatus
	}
	if input.PaymentMethod != nil {
		if !input.PaymentMethod.Valid() {
			return nil, domain.Validation("invalid payment method")
		}
		policy.PaymentMethod = input.PaymentMethod
	}
	if input.RenewalDate != nil {
		policy.RenewalDate = input.RenewalDate
	}
	if input.Notes != nil {
		policy.Notes = *input.Notes
	}

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityPolicy,
		EntityID:    policy.ID,
		Action:      models.ActionUpdate,
		Description: "insurance policy updated",
		PerformedBy: callerID,
		IPAddress:   ipAddress,
	})

	return policy, nil
}

// Approve activates a policy. Re-approving an active policy is a conflict, and so is
// approving a second policy while another one already covers the same owner and vehicle.
func (s *PolicyService) Approve(ctx context.Context, id, approverID uint, ipAddress string) (*models.Policy, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound)
	}
	if policy.Status == domain.PolicyActive {
		return nil, ErrPolicyAlreadyActive
	}

	now := s.now()
	if policy.VehicleID != nil {
		if err := s.ensureNoActivePolicy(ctx, policy.UserID, *policy.VehicleID, now); err != nil {
			return nil, err
		}
	}

	from := policy.Status
	policy.Status = domain.PolicyActive
	policy.ApprovedBy = &approverID
	policy.ApprovedAt = &now

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityPolicy,
		EntityID:    policy.ID,
		Action:      models.ActionApprove,
		FromStatus:  string(from),
		ToStatus:    string(policy.Status),
		Description: "insurance policy approved",
		PerformedBy: approverID,
		IPAddress:   ipAddress,
	})
	s.metrics.IncPolicyTransition(string(policy.Status))
	s.notifier.NotifyPolicyApproved(policy)

	return policy, nil
}

// Cancel cancels a policy. Only the owner or an admin may cancel.
func (s *PolicyService) Cancel(ctx context.Context, id, callerID uint, role domain.Role, ipAddress string) (*models.Policy, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound)
	}
	if policy.UserID != callerID && role != domain.RoleAdmin {
		return nil, ErrPolicyAccessDenied
	}

	from := policy.Status
	policy.Status = domain.PolicyCancelled

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		return nil, err
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityPolicy,
		EntityID:    policy.ID,
		Action:      models.ActionCancel,
		FromStatus:  string(from),
		ToStatus:    string(policy.Status),
		Description: "insurance policy cancelled",
		PerformedBy: callerID,
		IPAddress:   ipAddress,
	})
	s.metrics.IncPolicyTransition(string(policy.Status))

	return policy, nil
}

// Delete soft deletes a policy and records who removed it
func (s *PolicyService) Delete(ctx context.Context, id, callerID uint, ipAddress string) error {
	if err := s.policyRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrPolicyNotFound)
	}

	s.record(ctx, &models.AuditEntry{
		EntityType:  models.EntityPolicy,
		EntityID:    id,
		Action:      models.ActionDelete,
		Description: "insurance policy deleted",
		PerformedBy: callerID,
		IPAddress:   ipAddress,
	})

	return nil
}

// ListExpiring lists active policies ending within days from now
func (s *PolicyService) ListExpiring(ctx context.Context, days int) ([]*models.Policy, error) {
	if days < 0 {
		return nil, domain.Validation("days must not be negative")
	}
	from, to := domain.ExpiryWindow(s.now(), days)
	return s.policyRepo.ListExpiring(ctx, from, to)
}

// IsActive reports whether policy covers the current instant
func (s *PolicyService) IsActive(policy *models.Policy) bool {
	return policy.IsActive(s.now())
}

// ReconcileExpired writes status expired on every active policy past its end date.
// callerID is 0 when run by the scheduler.
func (s *PolicyService) ReconcileExpired(ctx context.Context, callerID uint) ([]*models.Policy, error) {
	lapsed, err := s.policyRepo.ListLapsed(ctx, s.now())
	if err != nil {
		return nil, err
	}

	updated := make([]*models.Policy, 0, len(lapsed))
	for _, policy := range lapsed {
		policy.Status = domain.PolicyExpired
		if err := s.policyRepo.Update(ctx, policy); err != nil {
			return updated, fmt.Errorf("expire policy %s: %w", policy.PolicyNumber, err)
		}

		s.record(ctx, &models.AuditEntry{
			EntityType:  models.EntityPolicy,
			EntityID:    policy.ID,
			Action:      models.ActionExpire,
			FromStatus:  string(domain.PolicyActive),
			ToStatus:    string(domain.PolicyExpired),
			Description: "coverage window ended",
			PerformedBy: callerID,
		})
		s.metrics.IncPolicyTransition(string(domain.PolicyExpired))
		updated = append(updated, policy)
	}

	return updated, nil
}

// History lists the audit trail of a policy, newest first
func (s *PolicyService) History(ctx context.Context, id uint) ([]*models.AuditEntry, error) {
	if s.audit == nil {
		return []*models.AuditEntry{}, nil
	}
	return s.audit.ListByEntity(ctx, models.EntityPolicy, id)
}
