package handlers

import (
	"strconv"
	"strings"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"
	"assurance-claims/internal/core/services"
	"assurance-claims/internal/pkg/pagination"
	"assurance-claims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PolicyHandler handles insurance policy endpoints
type PolicyHandler struct {
	policyService *services.PolicyService
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policyService *services.PolicyService) *PolicyHandler {
	return &PolicyHandler{
		policyService: policyService,
	}
}

// dateLayouts are the accepted date formats, full timestamps first
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.Validation(field + " must be a date (YYYY-MM-DD or RFC 3339)")
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreatePolicyRequest represents create policy request
type CreatePolicyRequest struct {
	PolicyNumber    string                       `json:"policy_number,omitempty"`
	VehicleID       string                       `json:"vehicle_id,omitempty"`
	InsuranceType   domain.InsuranceType         `json:"insurance_type"`
	StartDate       string                       `json:"start_date"`
	EndDate         string                       `json:"end_date"`
	PremiumAmount   float64                      `json:"premium_amount"`
	CoverageDetails string                       `json:"coverage_details"`
	CoverageLimit   *float64                     `json:"coverage_limit,omitempty"`
	Deductible      float64                      `json:"deductible,omitempty"`
	PaymentStatus   domain.PremiumPaymentStatus  `json:"payment_status,omitempty"`
	PaymentMethod   *domain.PremiumPaymentMethod `json:"payment_method,omitempty"`
	RenewalDate     *string                      `json:"renewal_date,omitempty"`
	Notes           string                       `json:"notes,omitempty"`
}

func (r *CreatePolicyRequest) toInput() (*services.CreatePolicyInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	renewal, err := parseOptionalDate("renewal_date", r.RenewalDate)
	if err != nil {
		return nil, err
	}

	return &services.CreatePolicyInput{
		PolicyNumber:    r.PolicyNumber,
		VehicleID:       r.VehicleID,
		InsuranceType:   r.InsuranceType,
		StartDate:       start,
		EndDate:         end,
		PremiumAmount:   r.PremiumAmount,
		CoverageDetails: r.CoverageDetails,
		CoverageLimit:   r.CoverageLimit,
		Deductible:      r.Deductible,
		PaymentStatus:   r.PaymentStatus,
		PaymentMethod:   r.PaymentMethod,
		RenewalDate:     renewal,
		Notes:           r.Notes,
	}, nil
}

// UpdatePolicyRequest represents update policy request. Absent fields are left unchanged.
type UpdatePolicyRequest struct {
	VehicleID       *string                      `json:"vehicle_id,omitempty"`
	InsuranceType   *domain.InsuranceType        `json:"insurance_type,omitempty"`
	StartDate       *string                      `json:"start_date,omitempty"`
	EndDate         *string                      `json:"end_date,omitempty"`
	PremiumAmount   *float64                     `json:"premium_amount,omitempty"`
	CoverageDetails *string                      `json:"coverage_details,omitempty"`
	CoverageLimit   *float64                     `json:"coverage_limit,omitempty"`
	Deductible      *float64                     `json:"deductible,omitempty"`
	PaymentStatus   *domain.PremiumPaymentStatus `json:"payment_status,omitempty"`
	PaymentMethod   *domain.PremiumPaymentMethod `json:"payment_method,omitempty"`
	RenewalDate     *string                      `json:"renewal_date,omitempty"`
	Notes           *string                      `json:"notes,omitempty"`
}

func (r *UpdatePolicyRequest) toInput() (*services.UpdatePolicyInput, error) {
	start, err := parseOptionalDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	renewal, err := parseOptionalDate("renewal_date", r.RenewalDate)
	if err != nil {
		return nil, err
	}

	return &services.UpdatePolicyInput{
		VehicleID:       r.VehicleID,
		InsuranceType:   r.InsuranceType,
		StartDate:       start,
		EndDate:         end,
		PremiumAmount:   r.PremiumAmount,
		CoverageDetails: r.CoverageDetails,
		CoverageLimit:   r.CoverageLimit,
		Deductible:      r.Deductible,
		PaymentStatus:   r.PaymentStatus,
		PaymentMethod:   r.PaymentMethod,
		RenewalDate:     renewal,
		Notes:           r.Notes,
	}, nil
}

func (h *PolicyHandler) toResponses(policies []*models.Policy) []*models.PolicyResponse {
	now := h.policyService.Now()
	out := make([]*models.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, p.ToResponse(now))
	}
	return out
}

// Create creates a new insurance policy
// @Summary Create insurance policy
// @Description Create a pending insurance policy owned by the caller
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePolicyRequest true "Policy data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /policies [post]
func (h *PolicyHandler) Create(c *fiber.Ctx) error {
	var req CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input, err := req.toInput()
	if err != nil {
		return respondError(c, err, "")
	}

	userID, _ := caller(c)
	policy, err := h.policyService.Create(c.Context(), input, userID, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to create insurance policy")
	}

	return response.Created(c, "Insurance policy created successfully", policy.ToResponse(h.policyService.Now()))
}

// List lists insurance policies
// @Summary List insurance policies
// @Description List insurance policies with filters (staff only)
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user_id query int false "Filter by owner"
// @Param status query string false "Filter by status"
// @Param vehicle_id query string false "Filter by vehicle"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /policies [get]
func (h *PolicyHandler) List(c *fiber.Ctx) error {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		return respondError(c, err, "")
	}
	filter := repositories.PolicyFilter{
		UserID:    userID,
		Status:    domain.PolicyStatus(c.Query("status")),
		VehicleID: c.Query("vehicle_id"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return response.BadRequest(c, "Invalid status")
	}

	page, err := h.policyService.List(c.Context(), filter, pagination.FromQuery(c))
	if err != nil {
		return respondError(c, err, "Failed to list insurance policies")
	}

	now := h.policyService.Now()
	return response.Success(c, "", pagination.Map(page, func(p *models.Policy) *models.PolicyResponse {
		return p.ToResponse(now)
	}))
}

// ListMine lists the caller's insurance policies
// @Summary List my insurance policies
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /policies/me [get]
func (h *PolicyHandler) ListMine(c *fiber.Ctx) error {
	userID, _ := caller(c)

	policies, err := h.policyService.ListByOwner(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Failed to list insurance policies")
	}

	return response.Success(c, "", h.toResponses(policies))
}

// ListExpiring lists active policies ending within the given number of days
// @Summary List expiring insurance policies
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param days path int true "Window in days"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /policies/expiring/{days} [get]
func (h *PolicyHandler) ListExpiring(c *fiber.Ctx) error {
	days := 30
	if raw := c.Params("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return response.BadRequest(c, "days must be an integer")
		}
		days = v
	}

	policies, err := h.policyService.ListExpiring(c.Context(), days)
	if err != nil {
		return respondError(c, err, "Failed to list expiring insurance policies")
	}

	return response.Success(c, "", h.toResponses(policies))
}

// GetVehicleInsurance returns the policy currently covering a vehicle
// @Summary Get vehicle insurance
// @Tags Policies
// @Produce json
// @Param vehicleId path string true "Vehicle ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/vehicle/{vehicleId} [get]
func (h *PolicyHandler) GetVehicleInsurance(c *fiber.Ctx) error {
	policy, err := h.policyService.GetVehicleInsurance(c.Context(), c.Params("vehicleId"))
	if err != nil {
		return respondError(c, err, "Failed to get vehicle insurance")
	}

	return response.Success(c, "", policy.ToResponse(h.policyService.Now()))
}

// ReconcileExpired marks every lapsed active policy as expired
// @Summary Expire lapsed insurance policies
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /policies/reconcile-expired [post]
func (h *PolicyHandler) ReconcileExpired(c *fiber.Ctx) error {
	userID, _ := caller(c)

	updated, err := h.policyService.ReconcileExpired(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Failed to expire insurance policies")
	}

	return response.Success(c, strconv.Itoa(len(updated))+" insurance policies expired", h.toResponses(updated))
}

// GetByID returns one insurance policy
// @Summary Get insurance policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id} [get]
func (h *PolicyHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, role := caller(c)
	policy, err := h.policyService.GetByID(c.Context(), id, userID, role)
	if err != nil {
		return respondError(c, err, "Failed to get insurance policy")
	}

	return response.Success(c, "", policy.ToResponse(h.policyService.Now()))
}

// Update edits an insurance policy
// @Summary Update insurance policy
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Param body body UpdatePolicyRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id} [put]
func (h *PolicyHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	var req UpdatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return respondError(c, err, "")
	}

	userID, role := caller(c)
	policy, err := h.policyService.Update(c.Context(), id, input, userID, role, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to update insurance policy")
	}

	return response.Success(c, "Insurance policy updated successfully", policy.ToResponse(h.policyService.Now()))
}

// Approve activates a pending insurance policy
// @Summary Approve insurance policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /policies/{id}/approve [put]
func (h *PolicyHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, _ := caller(c)
	policy, err := h.policyService.Approve(c.Context(), id, userID, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to approve insurance policy")
	}

	return response.Success(c, "Insurance policy approved successfully", policy.ToResponse(h.policyService.Now()))
}

// Cancel cancels an insurance policy
// @Summary Cancel insurance policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id}/cancel [put]
func (h *PolicyHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, role := caller(c)
	policy, err := h.policyService.Cancel(c.Context(), id, userID, role, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to cancel insurance policy")
	}

	return response.Success(c, "Insurance policy cancelled successfully", policy.ToResponse(h.policyService.Now()))
}

// Delete soft-deletes an insurance policy
// @Summary Delete insurance policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id} [delete]
func (h *PolicyHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, _ := caller(c)
	if err := h.policyService.Delete(c.Context(), id, userID, getClientIP(c)); err != nil {
		return respondError(c, err, "Failed to delete insurance policy")
	}

	return response.Success(c, "Insurance policy deleted successfully", nil)
}

// History lists the audit trail of an insurance policy
// @Summary Insurance policy history
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id}/history [get]
func (h *PolicyHandler) History(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, role := caller(c)
	if _, err := h.policyService.GetByID(c.Context(), id, userID, role); err != nil {
		return respondError(c, err, "Failed to get insurance policy")
	}

	entries, err := h.policyService.History(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get insurance policy history")
	}

	return response.Success(c, "", entries)
}
