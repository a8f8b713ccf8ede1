package services

import (
	"context"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"
)

// Eligibility errors
var (
	ErrNotPolicyOwner = domain.NewError(domain.ErrForbidden, "claims can only be filed against your own insurance policy")
	ErrPolicyInactive = domain.NewError(domain.ErrInvalidState, "insurance policy is not active")
)

// EligibilityChecker decides whether a user may file a claim against a policy.
// It runs once at claim creation; later transitions do not re-check the policy.
type EligibilityChecker struct {
	policyRepo repositories.PolicyRepository
	now        func() time.Time
}

// NewEligibilityChecker creates a new eligibility checker
func NewEligibilityChecker(policyRepo repositories.PolicyRepository, now func() time.Time) *EligibilityChecker {
	if now == nil {
		now = time.Now
	}
	return &EligibilityChecker{policyRepo: policyRepo, now: now}
}

// CheckClaimEligibility returns the policy when reportingUserID owns it and it is active now
func (e *EligibilityChecker) CheckClaimEligibility(ctx context.Context, policyID, reportingUserID uint) (*models.Policy, error) {
	policy, err := e.policyRepo.GetByID(ctx, policyID)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound)
	}
	if policy.UserID != reportingUserID {
		return nil, ErrNotPolicyOwner
	}
	if !policy.IsActive(e.now()) {
		return nil, ErrPolicyInactive
	}
	return policy, nil
}
