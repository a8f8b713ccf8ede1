package domain

import "time"

// SubmissionWindowDays is the maximum age of an incident, in whole days, at submission time.
const SubmissionWindowDays = 30

// transitions lists the legal status moves made by ordinary operations.
// Fraud escalation is handled separately by CanEscalate.
var transitions = map[ClaimStatus][]ClaimStatus{
	ClaimDraft:       {ClaimSubmitted},
	ClaimSubmitted:   {ClaimUnderReview, ClaimApproved, ClaimRejected},
	ClaimUnderReview: {ClaimApproved, ClaimRejected},
	ClaimApproved:    {ClaimProcessed},
}

// CanTransition reports whether from -> to is a legal ordinary transition
func CanTransition(from, to ClaimStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsReviewable reports whether a claim in status s may be approved or rejected
func IsReviewable(s ClaimStatus) bool {
	return s == ClaimSubmitted || s == ClaimUnderReview
}

// IsEditLocked reports whether ordinary edits are blocked in status s.
// Only admins may edit a locked claim.
func IsEditLocked(s ClaimStatus) bool {
	return s == ClaimApproved || s == ClaimProcessed || s == ClaimClosed
}

// IsTerminal reports whether no further workflow step leaves s
func IsTerminal(s ClaimStatus) bool {
	return s == ClaimRejected || s == ClaimProcessed || s == ClaimClosed
}

// CanEscalate reports whether fraud scoring may force a claim in s into under_review.
// Terminal claims are never reopened.
func CanEscalate(s ClaimStatus) bool {
	return s.Valid() && !IsTerminal(s)
}

// WithinSubmissionWindow reports whether an incident at incidentDate can still be submitted at now.
// Elapsed time is counted in whole days, so day 30 stays open until day 31 starts.
func WithinSubmissionWindow(incidentDate, now time.Time) bool {
	days := int64(now.Sub(incidentDate) / (24 * time.Hour))
	return days <= SubmissionWindowDays
}
