package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"assurance-claims/internal/adapters/persistence/memory"
	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"
	"assurance-claims/internal/core/services/mocks"
	"assurance-claims/internal/pkg/metrics"
	"assurance-claims/internal/pkg/pagination"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PolicyServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	ctrl     *gomock.Controller
	assets   *mocks.MockAssetLookup
	policies *memory.PolicyStore
	audit    *memory.AuditStore
	service  *PolicyService
	seeded   int
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ctrl = gomock.NewController(s.T())
	s.assets = mocks.NewMockAssetLookup(s.ctrl)
	s.policies = memory.NewPolicyStore()
	s.audit = memory.NewAuditStore()
	s.service = NewPolicyService(s.policies, s.assets,
		WithClock(func() time.Time { return s.now }),
		WithAuditTrail(s.audit),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
}

func (s *PolicyServiceSuite) validInput() *CreatePolicyInput {
	return &CreatePolicyInput{
		InsuranceType:   domain.InsuranceComprehensive,
		StartDate:       s.now.AddDate(0, 0, -1),
		EndDate:         s.now.AddDate(1, 0, 0),
		PremiumAmount:   1200,
		CoverageDetails: "Full coverage",
	}
}

func (s *PolicyServiceSuite) seed(ownerID uint, vehicleID string, status domain.PolicyStatus, start, end time.Time) *models.Policy {
	s.seeded++
	p := &models.Policy{
		PolicyNumber:    fmt.Sprintf("POL-SEED-%04d", s.seeded),
		UserID:          ownerID,
		InsuranceType:   domain.InsuranceCollision,
		StartDate:       start,
		EndDate:         end,
		PremiumAmount:   500,
		CoverageDetails: "seeded",
		Status:          status,
		PaymentStatus:   domain.PremiumPaid,
	}
	if vehicleID != "" {
		p.VehicleID = &vehicleID
	}
	s.Require().NoError(s.policies.Create(s.ctx, p))
	return p
}

func (s *PolicyServiceSuite) TestCreate() {
	s.Run("starts pending with generated number", func() {
		policy, err := s.service.Create(s.ctx, s.validInput(), 7, "10.0.0.1")
		s.Require().NoError(err)

		s.Equal(domain.PolicyPending, policy.Status)
		s.Equal(domain.PremiumPending, policy.PaymentStatus)
		s.Equal(uint(7), policy.UserID)
		s.Regexp(`^POL-2026-[0-9A-F]{8}$`, policy.PolicyNumber)
		s.Nil(policy.ApprovedBy)
		s.Nil(policy.ApprovedAt)

		history, err := s.service.History(s.ctx, policy.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(models.ActionCreate, history[0].Action)
		s.Equal("10.0.0.1", history[0].IPAddress)
	})

	s.Run("keeps a supplied policy number", func() {
		input := s.validInput()
		input.PolicyNumber = "POL-CUSTOM-1"

		policy, err := s.service.Create(s.ctx, input, 7, "")
		s.Require().NoError(err)
		s.Equal("POL-CUSTOM-1", policy.PolicyNumber)

		_, err = s.service.Create(s.ctx, input, 8, "")
		s.ErrorIs(err, ErrPolicyNumberTaken)
		s.ErrorIs(err, domain.ErrConflict)
	})

	s.Run("rejects malformed input", func() {
		cases := map[string]func(*CreatePolicyInput){
			"end before start": func(in *CreatePolicyInput) { in.EndDate = in.StartDate.Add(-time.Hour) },
			"negative premium": func(in *CreatePolicyInput) { in.PremiumAmount = -1 },
			"unknown type":     func(in *CreatePolicyInput) { in.InsuranceType = "boat" },
			"missing coverage": func(in *CreatePolicyInput) { in.CoverageDetails = " " },
			"bad number":       func(in *CreatePolicyInput) { in.PolicyNumber = "P!" },
			"negative deduct":  func(in *CreatePolicyInput) { in.Deductible = -5 },
		}
		for name, mutate := range cases {
			input := s.validInput()
			mutate(input)
			_, err := s.service.Create(s.ctx, input, 7, "")
			s.ErrorIs(err, domain.ErrValidation, name)
		}
	})

	s.Run("second active policy for the same owner and vehicle conflicts", func() {
		s.seed(21, "car-21", domain.PolicyActive, s.now.AddDate(0, -1, 0), s.now.AddDate(0, 0, 10))
		s.assets.EXPECT().AssetExists(gomock.Any(), "car-21").Return(true, nil)

		input := s.validInput()
		input.VehicleID = "car-21"
		_, err := s.service.Create(s.ctx, input, 21, "")
		s.ErrorIs(err, ErrDuplicateActivePolicy)
		s.ErrorIs(err, domain.ErrConflict)
	})

	s.Run("lapsed or foreign policies do not block", func() {
		s.seed(22, "car-22", domain.PolicyActive, s.now.AddDate(-1, 0, 0), s.now.AddDate(0, 0, -1))
		s.seed(99, "car-22", domain.PolicyActive, s.now.AddDate(0, -1, 0), s.now.AddDate(0, 1, 0))
		s.seed(22, "car-22", domain.PolicyPending, s.now.AddDate(0, -1, 0), s.now.AddDate(0, 1, 0))
		s.assets.EXPECT().AssetExists(gomock.Any(), "car-22").Return(true, nil)

		input := s.validInput()
		input.VehicleID = "car-22"
		policy, err := s.service.Create(s.ctx, input, 22, "")
		s.Require().NoError(err)
		s.Equal("car-22", *policy.VehicleID)
	})

	s.Run("unknown vehicle is not found", func() {
		s.assets.EXPECT().AssetExists(gomock.Any(), "ghost").Return(false, nil)

		input := s.validInput()
		input.VehicleID = "ghost"
		_, err := s.service.Create(s.ctx, input, 7, "")
		s.ErrorIs(err, ErrVehicleNotFound)
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("fleet outage degrades to not found", func() {
		s.assets.EXPECT().AssetExists(gomock.Any(), "car-x").Return(false, errors.New("connection refused"))

		input := s.validInput()
		input.VehicleID = "car-x"
		_, err := s.service.Create(s.ctx, input, 7, "")
		s.ErrorIs(err, ErrVehicleNotFound)
	})
}

func (s *PolicyServiceSuite) TestApprove() {
	s.Run("pending becomes active and is stamped", func() {
		p := s.seed(1, "", domain.PolicyPending, s.now, s.now.AddDate(1, 0, 0))

		approved, err := s.service.Approve(s.ctx, p.ID, 50, "")
		s.Require().NoError(err)
		s.Equal(domain.PolicyActive, approved.Status)
		s.Require().NotNil(approved.ApprovedBy)
		s.Equal(uint(50), *approved.ApprovedBy)
		s.Require().NotNil(approved.ApprovedAt)
		s.True(approved.ApprovedAt.Equal(s.now))
	})

	s.Run("cancelled can be approved", func() {
		p := s.seed(1, "", domain.PolicyCancelled, s.now, s.now.AddDate(1, 0, 0))

		approved, err := s.service.Approve(s.ctx, p.ID, 50, "")
		s.Require().NoError(err)
		s.Equal(domain.PolicyActive, approved.Status)
	})

	s.Run("active cannot be approved again", func() {
		p := s.seed(1, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))

		_, err := s.service.Approve(s.ctx, p.ID, 50, "")
		s.ErrorIs(err, ErrPolicyAlreadyActive)
		s.ErrorIs(err, domain.ErrConflict)
	})

	s.Run("second policy on a covered vehicle is refused", func() {
		first := s.seed(3, "car-twice", domain.PolicyPending, s.now, s.now.AddDate(1, 0, 0))
		second := s.seed(3, "car-twice", domain.PolicyPending, s.now, s.now.AddDate(1, 0, 0))

		_, err := s.service.Approve(s.ctx, first.ID, 50, "")
		s.Require().NoError(err)

		_, err = s.service.Approve(s.ctx, second.ID, 50, "")
		s.ErrorIs(err, ErrDuplicateActivePolicy)

		stored, err := s.policies.GetByID(s.ctx, second.ID)
		s.Require().NoError(err)
		s.Equal(domain.PolicyPending, stored.Status)
	})

	s.Run("lapsed cover does not block approval", func() {
		s.seed(4, "car-renewed", domain.PolicyActive, s.now.AddDate(-1, 0, -1), s.now.AddDate(0, 0, -1))
		renewal := s.seed(4, "car-renewed", domain.PolicyPending, s.now, s.now.AddDate(1, 0, 0))

		approved, err := s.service.Approve(s.ctx, renewal.ID, 50, "")
		s.Require().NoError(err)
		s.Equal(domain.PolicyActive, approved.Status)
	})

	s.Run("missing policy", func() {
		_, err := s.service.Approve(s.ctx, 9999, 50, "")
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *PolicyServiceSuite) TestCancel() {
	s.Run("owner cancels", func() {
		p := s.seed(3, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))

		cancelled, err := s.service.Cancel(s.ctx, p.ID, 3, domain.RoleUser, "")
		s.Require().NoError(err)
		s.Equal(domain.PolicyCancelled, cancelled.Status)
	})

	s.Run("admin cancels any policy", func() {
		p := s.seed(3, "", domain.PolicyPending, s.now, s.now.AddDate(1, 0, 0))

		cancelled, err := s.service.Cancel(s.ctx, p.ID, 1, domain.RoleAdmin, "")
		s.Require().NoError(err)
		s.Equal(domain.PolicyCancelled, cancelled.Status)
	})

	s.Run("other callers are forbidden", func() {
		p := s.seed(3, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))

		for _, role := range []domain.Role{domain.RoleUser, domain.RoleAgency, domain.RoleInsurance} {
			_, err := s.service.Cancel(s.ctx, p.ID, 4, role, "")
			s.ErrorIs(err, domain.ErrForbidden, role)
		}

		stored, err := s.policies.GetByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(domain.PolicyActive, stored.Status)
	})

	s.Run("missing policy", func() {
		_, err := s.service.Cancel(s.ctx, 9999, 3, domain.RoleAdmin, "")
		s.ErrorIs(err, ErrPolicyNotFound)
	})
}

func (s *PolicyServiceSuite) TestListExpiring() {
	soon := s.seed(1, "", domain.PolicyActive, s.now.AddDate(0, -6, 0), s.now.AddDate(0, 0, 5))
	edge := s.seed(1, "", domain.PolicyActive, s.now.AddDate(0, -6, 0), s.now.AddDate(0, 0, 30))
	s.seed(1, "", domain.PolicyActive, s.now.AddDate(0, -6, 0), s.now.AddDate(0, 0, 40))
	s.seed(1, "", domain.PolicyPending, s.now.AddDate(0, -6, 0), s.now.AddDate(0, 0, 5))
	s.seed(1, "", domain.PolicyActive, s.now.AddDate(0, -6, 0), s.now.AddDate(0, 0, -1))

	expiring, err := s.service.ListExpiring(s.ctx, 30)
	s.Require().NoError(err)
	s.Require().Len(expiring, 2)
	s.Equal(soon.ID, expiring[0].ID)
	s.Equal(edge.ID, expiring[1].ID)

	_, err = s.service.ListExpiring(s.ctx, -1)
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *PolicyServiceSuite) TestReconcileExpired() {
	lapsed := s.seed(1, "", domain.PolicyActive, s.now.AddDate(-1, 0, 0), s.now.AddDate(0, 0, -1))
	current := s.seed(1, "", domain.PolicyActive, s.now.AddDate(0, -1, 0), s.now.AddDate(0, 1, 0))

	s.False(s.service.IsActive(lapsed))
	s.True(s.service.IsActive(current))

	expired, err := s.service.ReconcileExpired(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(lapsed.ID, expired[0].ID)

	stored, err := s.policies.GetByID(s.ctx, lapsed.ID)
	s.Require().NoError(err)
	s.Equal(domain.PolicyExpired, stored.Status)

	stored, err = s.policies.GetByID(s.ctx, current.ID)
	s.Require().NoError(err)
	s.Equal(domain.PolicyActive, stored.Status)

	history, err := s.service.History(s.ctx, lapsed.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(models.ActionExpire, history[0].Action)

	again, err := s.service.ReconcileExpired(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(again)
}

func (s *PolicyServiceSuite) TestGetByID() {
	p := s.seed(5, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))

	_, err := s.service.GetByID(s.ctx, p.ID, 5, domain.RoleUser)
	s.NoError(err)
	_, err = s.service.GetByID(s.ctx, p.ID, 6, domain.RoleInsurance)
	s.NoError(err)
	_, err = s.service.GetByID(s.ctx, p.ID, 6, domain.RoleUser)
	s.ErrorIs(err, ErrPolicyAccessDenied)
}

func (s *PolicyServiceSuite) TestGetVehicleInsurance() {
	s.seed(5, "car-5", domain.PolicyPending, s.now.AddDate(0, -1, 0), s.now.AddDate(0, 1, 0))
	_, err := s.service.GetVehicleInsurance(s.ctx, "car-5")
	s.ErrorIs(err, ErrNoVehicleInsurance)

	active := s.seed(5, "car-5", domain.PolicyActive, s.now.AddDate(0, -1, 0), s.now.AddDate(0, 1, 0))
	found, err := s.service.GetVehicleInsurance(s.ctx, "car-5")
	s.Require().NoError(err)
	s.Equal(active.ID, found.ID)
}

func (s *PolicyServiceSuite) TestUpdate() {
	p := s.seed(5, "", domain.PolicyPending, s.now, s.now.AddDate(1, 0, 0))
	notes := "renewal discussed"

	updated, err := s.service.Update(s.ctx, p.ID, &UpdatePolicyInput{Notes: &notes}, 5, domain.RoleUser, "")
	s.Require().NoError(err)
	s.Equal(notes, updated.Notes)
	s.Equal(p.PolicyNumber, updated.PolicyNumber)
	s.Equal(domain.PolicyPending, updated.Status)

	_, err = s.service.Update(s.ctx, p.ID, &UpdatePolicyInput{Notes: &notes}, 6, domain.RoleUser, "")
	s.ErrorIs(err, domain.ErrForbidden)
	_, err = s.service.Update(s.ctx, p.ID, &UpdatePolicyInput{Notes: &notes}, 6, domain.RoleInsurance, "")
	s.ErrorIs(err, domain.ErrForbidden)
	_, err = s.service.Update(s.ctx, p.ID, &UpdatePolicyInput{Notes: &notes}, 6, domain.RoleAgency, "")
	s.NoError(err)

	before := s.now.AddDate(-1, 0, 0)
	_, err = s.service.Update(s.ctx, p.ID, &UpdatePolicyInput{EndDate: &before}, 5, domain.RoleUser, "")
	s.ErrorIs(err, domain.ErrValidation)

	s.assets.EXPECT().AssetExists(gomock.Any(), "car-9").Return(true, nil)
	vehicle := "car-9"
	updated, err = s.service.Update(s.ctx, p.ID, &UpdatePolicyInput{VehicleID: &vehicle}, 5, domain.RoleUser, "")
	s.Require().NoError(err)
	s.Equal("car-9", *updated.VehicleID)
}

func (s *PolicyServiceSuite) TestDelete() {
	p := s.seed(5, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))

	s.Require().NoError(s.service.Delete(s.ctx, p.ID, 1, "127.0.0.1"))

	_, err := s.service.GetByID(s.ctx, p.ID, 5, domain.RoleUser)
	s.ErrorIs(err, ErrPolicyNotFound)

	err = s.service.Delete(s.ctx, p.ID, 1, "")
	s.ErrorIs(err, ErrPolicyNotFound)

	history, err := s.service.History(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(models.ActionDelete, history[0].Action)

	exists, err := s.policies.ExistsByPolicyNumber(s.ctx, p.PolicyNumber)
	s.Require().NoError(err)
	s.True(exists, "tombstoned numbers stay reserved")
}

func (s *PolicyServiceSuite) TestListByOwner() {
	s.seed(11, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))
	s.seed(11, "", domain.PolicyPending, s.now, s.now.AddDate(1, 0, 0))
	s.seed(12, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))

	mine, err := s.service.ListByOwner(s.ctx, 11)
	s.Require().NoError(err)
	s.Len(mine, 2)
}

func (s *PolicyServiceSuite) TestListPages() {
	for i := 0; i < 3; i++ {
		s.seed(21, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))
	}
	s.seed(22, "", domain.PolicyActive, s.now, s.now.AddDate(1, 0, 0))

	page, err := s.service.List(s.ctx, repositories.PolicyFilter{UserID: 21}, pagination.New(1, 2))
	s.Require().NoError(err)
	s.Len(page.Data, 2)
	s.Equal(int64(3), page.Meta.Total)
	s.Equal(2, page.Meta.TotalPages)
	s.True(page.Meta.HasNext)

	page, err = s.service.List(s.ctx, repositories.PolicyFilter{UserID: 21}, pagination.New(2, 2))
	s.Require().NoError(err)
	s.Len(page.Data, 1)
	s.False(page.Meta.HasNext)
}
