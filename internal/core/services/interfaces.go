package services

import (
	"context"
	"errors"
	"log"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/pkg/metrics"

	"gorm.io/gorm"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/asset_lookup_mock.go -package=mocks AssetLookup

// AssetLookup answers whether a vehicle exists in the fleet registry.
// A nil AssetLookup disables the check.
type AssetLookup interface {
	AssetExists(ctx context.Context, vehicleID string) (bool, error)
}

// Option configures the ambient collaborators of a service
type Option func(*settings)

type settings struct {
	now      func() time.Time
	metrics  *metrics.Metrics
	notifier *NotificationService
	audit    repositories.AuditRepository
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records lifecycle events on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithNotifier sends LINE notices for lifecycle events
func WithNotifier(n *NotificationService) Option {
	return func(s *settings) {
		s.notifier = n
	}
}

// WithAuditTrail writes one history entry per mutation to repo
func WithAuditTrail(repo repositories.AuditRepository) Option {
	return func(s *settings) {
		s.audit = repo
	}
}

// Now returns the current time of the service clock
func (s *settings) Now() time.Time {
	return s.now()
}

// record writes an audit entry. Failures are logged and never fail the mutation.
func (s *settings) record(ctx context.Context, entry *models.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to record %s %s #%d: %v", entry.EntityType, entry.Action, entry.EntityID, err)
	}
}

// notFound maps a missing record to target and passes other errors through
func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
