package services

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
)

const lineNotifyEndpoint = "https://notify-api.line.me/api/notify"

// NotificationService handles LINE notifications for the claims desk.
// A nil or tokenless service sends nothing.
type NotificationService struct {
	lineNotifyToken string
	endpoint        string
	enabled         bool
	client          *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(token string) *NotificationService {
	return &NotificationService{
		lineNotifyToken: token,
		endpoint:        lineNotifyEndpoint,
		enabled:         token != "",
		client:          &http.Client{Timeout: 5 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s != nil && s.enabled
}

// sendLineNotify sends a message via LINE Notify
func (s *NotificationService) sendLineNotify(message string) error {
	if !s.IsEnabled() {
		return nil
	}

	data := url.Values{}
	data.Set("message", message)

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.lineNotifyToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("line notify returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *NotificationService) send(message string) {
	if err := s.sendLineNotify(message); err != nil {
		log.Printf("⚠️ LINE notify failed: %v", err)
	}
}

// NotifyPolicyApproved sends notification for an activated policy
func (s *NotificationService) NotifyPolicyApproved(policy *models.Policy) {
	if !s.IsEnabled() {
		return
	}

	message := fmt.Sprintf(`
✅ Policy approved

📋 Policy: %s
🛡️ Type: %s
📅 Coverage: %s - %s`,
		policy.PolicyNumber,
		policy.InsuranceType,
		policy.StartDate.Format("2006-01-02"),
		policy.EndDate.Format("2006-01-02"),
	)

	s.send(message)
}

// NotifyClaimSubmitted sends notification for a claim entering review
func (s *NotificationService) NotifyClaimSubmitted(claim *models.Claim) {
	if !s.IsEnabled() {
		return
	}

	message := fmt.Sprintf(`
🆕 New claim submitted

📋 Claim: %s
⚠️ Incident: %s on %s
💰 Estimated: %.2f
📊 Priority: %s`,
		claim.ClaimNumber,
		claim.IncidentType,
		claim.IncidentDate.Format("2006-01-02"),
		claim.EstimatedAmount,
		claim.Priority,
	)

	s.send(message)
}

// NotifyClaimReviewed sends notification for a review decision
func (s *NotificationService) NotifyClaimReviewed(claim *models.Claim) {
	if !s.IsEnabled() {
		return
	}

	detail := ""
	if claim.ApprovedAmount != nil {
		detail = fmt.Sprintf("\n💰 Approved: %.2f", *claim.ApprovedAmount)
	}
	if claim.RejectionReason != nil {
		detail = "\n📝 Reason: " + *claim.RejectionReason
	}

	message := fmt.Sprintf(`
🔄 Claim reviewed

📋 Claim: %s
📊 Status: %s%s`,
		claim.ClaimNumber,
		claim.Status,
		detail,
	)

	s.send(message)
}

// NotifyFraudEscalated sends notification for a claim pulled back into review
func (s *NotificationService) NotifyFraudEscalated(claim *models.Claim, score int) {
	if !s.IsEnabled() {
		return
	}

	message := fmt.Sprintf(`
🚨 Fraud alert

📋 Claim: %s
🔢 Score: %d
📊 Status: %s`,
		claim.ClaimNumber,
		score,
		claim.Status,
	)

	s.send(message)
}

// NotifyClaimPaid sends notification for a settled claim
func (s *NotificationService) NotifyClaimPaid(claim *models.Claim) {
	if !s.IsEnabled() || claim.Payment.Amount == nil {
		return
	}

	message := fmt.Sprintf(`
💸 Claim paid

📋 Claim: %s
💰 Amount: %.2f`,
		claim.ClaimNumber,
		*claim.Payment.Amount,
	)

	s.send(message)
}
