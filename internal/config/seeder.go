package config

import (
	"context"
	"log"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"
)

// Seeder loads demo policies for local development
type Seeder struct {
	policies repositories.PolicyRepository
	now      func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(policies repositories.PolicyRepository) *Seeder {
	return &Seeder{policies: policies, now: time.Now}
}

// Run executes all seeders. Existing policy numbers are skipped.
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running demo seeders...")

	seeded := 0
	for _, p := range s.demoPolicies() {
		exists, err := s.policies.ExistsByPolicyNumber(ctx, p.PolicyNumber)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := s.policies.Create(ctx, p); err != nil {
			return err
		}
		seeded++
	}

	log.Printf("✅ Demo seeding completed (%d policies)", seeded)
	return nil
}

// demoPolicies covers one policy per status, owned by user 1
func (s *Seeder) demoPolicies() []*models.Policy {
	now := s.now().UTC().Truncate(24 * time.Hour)
	vehicle := func(id string) *string { return &id }
	approver := uint(1000)

	return []*models.Policy{
		{
			PolicyNumber:    "POL-DEMO-ACTIVE",
			UserID:          1,
			VehicleID:       vehicle("demo-car-1"),
			InsuranceType:   domain.InsuranceComprehensive,
			StartDate:       now.AddDate(0, -2, 0),
			EndDate:         now.AddDate(0, 10, 0),
			PremiumAmount:   1200,
			CoverageDetails: "Comprehensive cover, 500 deductible",
			Deductible:      500,
			Status:          domain.PolicyActive,
			PaymentStatus:   domain.PremiumPaid,
			ApprovedBy:      &approver,
			ApprovedAt:      &now,
		},
		{
			PolicyNumber:    "POL-DEMO-EXPIRING",
			UserID:          1,
			VehicleID:       vehicle("demo-car-2"),
			InsuranceType:   domain.InsuranceThirdParty,
			StartDate:       now.AddDate(-1, 0, 10),
			EndDate:         now.AddDate(0, 0, 10),
			PremiumAmount:   450,
			CoverageDetails: "Third-party liability",
			Status:          domain.PolicyActive,
			PaymentStatus:   domain.PremiumPaid,
			ApprovedBy:      &approver,
			ApprovedAt:      &now,
		},
		{
			PolicyNumber:    "POL-DEMO-PENDING",
			UserID:          1,
			VehicleID:       vehicle("demo-car-3"),
			InsuranceType:   domain.InsuranceTheft,
			StartDate:       now,
			EndDate:         now.AddDate(1, 0, 0),
			PremiumAmount:   300,
			CoverageDetails: "Theft only",
			Status:          domain.PolicyPending,
			PaymentStatus:   domain.PremiumPending,
		},
	}
}
