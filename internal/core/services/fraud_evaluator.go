package services

import (
	"strings"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/core/domain"
)

// FraudInput is a fraud evaluation submitted by a reviewer
type FraudInput struct {
	Score *int     `json:"score"`
	Flags []string `json:"flags,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

// FraudOutcome describes what an evaluation did to the claim
type FraudOutcome struct {
	Disposition domain.FraudDisposition
	FromStatus  domain.ClaimStatus
	// Escalated is true when the claim was forced into under_review
	Escalated bool
	// Skipped is true when the score called for escalation but the status cannot be reopened
	Skipped bool
}

// FraudEvaluator records fraud scores on claims and applies the escalation rule
type FraudEvaluator struct{}

// NewFraudEvaluator creates a new fraud evaluator
func NewFraudEvaluator() *FraudEvaluator {
	return &FraudEvaluator{}
}

// Evaluate overwrites the fraud record of claim. A score above the threshold raises
// priority to high and moves every non-terminal claim, drafts included, to under_review.
// Rejected, processed and closed claims keep their status.
func (e *FraudEvaluator) Evaluate(claim *models.Claim, input *FraudInput, reviewerID uint, now time.Time) (*FraudOutcome, error) {
	if input.Score == nil {
		return nil, domain.Validation("fraud score is required")
	}
	score := *input.Score
	if !domain.ValidFraudScore(score) {
		return nil, domain.Validation("fraud score must be between 0 and 100")
	}

	flags := make([]string, 0, len(input.Flags))
	for _, f := range input.Flags {
		if f = strings.TrimSpace(f); f != "" {
			flags = append(flags, f)
		}
	}

	claim.Fraud = models.FraudDetection{
		Score:      &score,
		Flags:      flags,
		ReviewedBy: &reviewerID,
		ReviewedAt: &now,
		Notes:      input.Notes,
	}

	outcome := &FraudOutcome{
		Disposition: domain.AssessFraud(score),
		FromStatus:  claim.Status,
	}
	if !outcome.Disposition.Escalate {
		return outcome, nil
	}

	claim.Priority = domain.PriorityHigh
	if domain.CanEscalate(claim.Status) {
		claim.Status = domain.ClaimUnderReview
		outcome.Escalated = true
	} else {
		outcome.Skipped = true
	}

	return outcome, nil
}
