package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled policy reconciliation
type CronService struct {
	policyService *PolicyService
	schedule      string
	cron          *cron.Cron
	timeout       time.Duration
}

// NewCronService creates a scheduler for ReconcileExpired. An empty schedule disables it.
func NewCronService(policyService *PolicyService, schedule string) *CronService {
	return &CronService{
		policyService: policyService,
		schedule:      schedule,
		cron:          cron.New(),
		timeout:       5 * time.Minute,
	}
}

// Start registers the job and starts the scheduler
func (s *CronService) Start() error {
	if s.schedule == "" {
		log.Println("⏸️ Policy reconciliation cron disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.reconcile); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Printf("🚀 Policy reconciliation cron started (%s)", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Policy reconciliation cron stopped")
}

func (s *CronService) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	expired, err := s.policyService.ReconcileExpired(ctx, 0)
	if err != nil {
		log.Printf("❌ Policy reconciliation failed: %v", err)
		return
	}
	if len(expired) > 0 {
		log.Printf("✅ Expired %d lapsed policies", len(expired))
	}
}
