package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPolicyActive(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, -1, 0)
	end := now.AddDate(0, 1, 0)

	tests := []struct {
		name   string
		status PolicyStatus
		start  time.Time
		end    time.Time
		want   bool
	}{
		{"active inside window", PolicyActive, start, end, true},
		{"active on start boundary", PolicyActive, now, end, true},
		{"active on end boundary", PolicyActive, start, now, true},
		{"active not started", PolicyActive, now.Add(time.Hour), end, false},
		{"active already ended", PolicyActive, start, now.Add(-time.Second), false},
		{"pending inside window", PolicyPending, start, end, false},
		{"cancelled inside window", PolicyCancelled, start, end, false},
		{"expired inside window", PolicyExpired, start, end, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPolicyActive(tt.status, tt.start, tt.end, now))
		})
	}
}

func TestIsPolicyLapsed(t *testing.T) {
	now := time.Now()
	assert.True(t, IsPolicyLapsed(PolicyActive, now.Add(-time.Minute), now))
	assert.False(t, IsPolicyLapsed(PolicyActive, now.Add(time.Minute), now))
	assert.False(t, IsPolicyLapsed(PolicyPending, now.Add(-time.Minute), now))
}

func TestClaimTransitions(t *testing.T) {
	assert.True(t, CanTransition(ClaimDraft, ClaimSubmitted))
	assert.True(t, CanTransition(ClaimSubmitted, ClaimUnderReview))
	assert.True(t, CanTransition(ClaimSubmitted, ClaimApproved))
	assert.True(t, CanTransition(ClaimUnderReview, ClaimRejected))
	assert.True(t, CanTransition(ClaimApproved, ClaimProcessed))

	assert.False(t, CanTransition(ClaimDraft, ClaimApproved))
	assert.False(t, CanTransition(ClaimRejected, ClaimApproved))
	assert.False(t, CanTransition(ClaimProcessed, ClaimClosed), "close is not reachable")
	assert.False(t, CanTransition(ClaimApproved, ClaimUnderReview), "only fraud escalation reopens approved claims")
}

func TestClaimStatusPredicates(t *testing.T) {
	for _, s := range []ClaimStatus{ClaimSubmitted, ClaimUnderReview} {
		assert.True(t, IsReviewable(s), s)
	}
	for _, s := range []ClaimStatus{ClaimDraft, ClaimApproved, ClaimRejected, ClaimProcessed, ClaimClosed} {
		assert.False(t, IsReviewable(s), s)
	}

	for _, s := range []ClaimStatus{ClaimApproved, ClaimProcessed, ClaimClosed} {
		assert.True(t, IsEditLocked(s), s)
	}
	assert.False(t, IsEditLocked(ClaimDraft))
	assert.False(t, IsEditLocked(ClaimRejected))

	for _, s := range []ClaimStatus{ClaimDraft, ClaimSubmitted, ClaimUnderReview, ClaimApproved} {
		assert.True(t, CanEscalate(s), s)
	}
	for _, s := range []ClaimStatus{ClaimRejected, ClaimProcessed, ClaimClosed, ClaimStatus("archived")} {
		assert.False(t, CanEscalate(s), s)
	}
}

func TestWithinSubmissionWindow(t *testing.T) {
	now := time.Now()
	assert.True(t, WithinSubmissionWindow(now.AddDate(0, 0, -1), now))
	assert.True(t, WithinSubmissionWindow(now.AddDate(0, 0, -SubmissionWindowDays), now))
	assert.True(t, WithinSubmissionWindow(now.AddDate(0, 0, -SubmissionWindowDays).Add(-5*time.Hour), now))
	assert.False(t, WithinSubmissionWindow(now.AddDate(0, 0, -SubmissionWindowDays-1), now))
	assert.False(t, WithinSubmissionWindow(now.AddDate(0, 0, -40), now))
}

func TestAssessFraud(t *testing.T) {
	assert.True(t, AssessFraud(85).Escalate)
	assert.True(t, AssessFraud(71).Escalate)
	assert.False(t, AssessFraud(70).Escalate)
	assert.False(t, AssessFraud(40).Escalate)

	assert.True(t, ValidFraudScore(0))
	assert.True(t, ValidFraudScore(100))
	assert.False(t, ValidFraudScore(-1))
	assert.False(t, ValidFraudScore(101))
}

func TestErrorKinds(t *testing.T) {
	errPolicyMissing := NewError(ErrNotFound, "insurance policy not found")
	wrapped := fmt.Errorf("approve: %w", errPolicyMissing)

	assert.True(t, errors.Is(wrapped, errPolicyMissing))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, ErrNotFound, KindOf(wrapped))
	assert.Equal(t, "insurance policy not found", errPolicyMissing.Error())

	assert.Nil(t, KindOf(errors.New("db down")))
	assert.Equal(t, "validation_error", KindCode(KindOf(Validation("bad input"))))
	assert.Equal(t, "internal_error", KindCode(nil))
}

func TestRoles(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleInsurance.IsStaff())
	assert.False(t, RoleUser.IsStaff())
	assert.True(t, RoleAgency.CanManage())
	assert.False(t, RoleInsurance.CanManage())
}
