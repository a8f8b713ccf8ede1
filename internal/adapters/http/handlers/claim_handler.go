package handlers

import (
	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"
	"assurance-claims/internal/core/services"
	"assurance-claims/internal/pkg/pagination"
	"assurance-claims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ClaimHandler handles claim (constat) endpoints
type ClaimHandler struct {
	claimService *services.ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claimService *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
	}
}

// CreateClaimRequest represents create claim request
type CreateClaimRequest struct {
	ClaimNumber        string                 `json:"claim_number,omitempty"`
	PolicyID           uint                   `json:"policy_id"`
	VehicleID          string                 `json:"vehicle_id,omitempty"`
	IncidentType       domain.IncidentType    `json:"incident_type"`
	IncidentDate       string                 `json:"incident_date"`
	Location           services.LocationInput `json:"location"`
	Description        string                 `json:"description"`
	EstimatedAmount    float64                `json:"estimated_amount"`
	Priority           domain.Priority        `json:"priority,omitempty"`
	InvolvedParties    []models.InvolvedParty `json:"involved_parties,omitempty"`
	IsAmicable         bool                   `json:"is_amicable,omitempty"`
	PoliceReportNumber string                 `json:"police_report_number,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
}

func (r *CreateClaimRequest) toInput() (*services.CreateClaimInput, error) {
	incidentDate, err := parseDate("incident_date", r.IncidentDate)
	if err != nil {
		return nil, err
	}

	return &services.CreateClaimInput{
		ClaimNumber:        r.ClaimNumber,
		PolicyID:           r.PolicyID,
		VehicleID:          r.VehicleID,
		IncidentType:       r.IncidentType,
		IncidentDate:       incidentDate,
		Location:           r.Location,
		Description:        r.Description,
		EstimatedAmount:    r.EstimatedAmount,
		Priority:           r.Priority,
		InvolvedParties:    r.InvolvedParties,
		IsAmicable:         r.IsAmicable,
		PoliceReportNumber: r.PoliceReportNumber,
		Notes:              r.Notes,
	}, nil
}

// UpdateClaimRequest represents update claim request. Absent fields are left unchanged.
type UpdateClaimRequest struct {
	IncidentType       *domain.IncidentType    `json:"incident_type,omitempty"`
	IncidentDate       *string                 `json:"incident_date,omitempty"`
	Location           *services.LocationInput `json:"location,omitempty"`
	Description        *string                 `json:"description,omitempty"`
	EstimatedAmount    *float64                `json:"estimated_amount,omitempty"`
	Priority           *domain.Priority        `json:"priority,omitempty"`
	InvolvedParties    []models.InvolvedParty  `json:"involved_parties,omitempty"`
	IsAmicable         *bool                   `json:"is_amicable,omitempty"`
	PoliceReportNumber *string                 `json:"police_report_number,omitempty"`
	Notes              *string                 `json:"notes,omitempty"`
}

func (r *UpdateClaimRequest) toInput() (*services.UpdateClaimInput, error) {
	incidentDate, err := parseOptionalDate("incident_date", r.IncidentDate)
	if err != nil {
		return nil, err
	}

	return &services.UpdateClaimInput{
		IncidentType:       r.IncidentType,
		IncidentDate:       incidentDate,
		Location:           r.Location,
		Description:        r.Description,
		EstimatedAmount:    r.EstimatedAmount,
		Priority:           r.Priority,
		InvolvedParties:    r.InvolvedParties,
		IsAmicable:         r.IsAmicable,
		PoliceReportNumber: r.PoliceReportNumber,
		Notes:              r.Notes,
	}, nil
}

func (h *ClaimHandler) toResponses(claims []*models.Claim) []*models.ClaimResponse {
	now := h.claimService.Now()
	out := make([]*models.ClaimResponse, 0, len(claims))
	for _, cl := range claims {
		out = append(out, cl.ToResponse(now))
	}
	return out
}

func (h *ClaimHandler) ok(c *fiber.Ctx, message string, claim *models.Claim) error {
	return response.Success(c, message, claim.ToResponse(h.claimService.Now()))
}

// Create files a draft claim
// @Summary Create claim
// @Description File a draft claim against one of the caller's active policies
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateClaimRequest true "Claim data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims [post]
func (h *ClaimHandler) Create(c *fiber.Ctx) error {
	var req CreateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input, err := req.toInput()
	if err != nil {
		return respondError(c, err, "")
	}

	userID, _ := caller(c)
	claim, err := h.claimService.Create(c.Context(), input, userID, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to create claim")
	}

	return response.Created(c, "Claim created successfully", claim.ToResponse(h.claimService.Now()))
}

// List lists claims
// @Summary List claims
// @Description List claims with filters (staff only)
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user_id query int false "Filter by reporter"
// @Param policy_id query int false "Filter by policy"
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param incident_type query string false "Filter by incident type"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /claims [get]
func (h *ClaimHandler) List(c *fiber.Ctx) error {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		return respondError(c, err, "")
	}
	policyID, err := queryUint(c, "policy_id")
	if err != nil {
		return respondError(c, err, "")
	}

	filter := repositories.ClaimFilter{
		UserID:       userID,
		PolicyID:     policyID,
		Status:       domain.ClaimStatus(c.Query("status")),
		Priority:     domain.Priority(c.Query("priority")),
		IncidentType: domain.IncidentType(c.Query("incident_type")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return response.BadRequest(c, "Invalid status")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return response.BadRequest(c, "Invalid priority")
	}
	if filter.IncidentType != "" && !filter.IncidentType.Valid() {
		return response.BadRequest(c, "Invalid incident type")
	}

	page, err := h.claimService.List(c.Context(), filter, pagination.FromQuery(c))
	if err != nil {
		return respondError(c, err, "Failed to list claims")
	}

	now := h.claimService.Now()
	return response.Success(c, "", pagination.Map(page, func(cl *models.Claim) *models.ClaimResponse {
		return cl.ToResponse(now)
	}))
}

// ListMine lists the caller's claims
// @Summary List my claims
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /claims/me [get]
func (h *ClaimHandler) ListMine(c *fiber.Ctx) error {
	userID, _ := caller(c)

	claims, err := h.claimService.ListByOwner(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Failed to list claims")
	}

	return response.Success(c, "", h.toResponses(claims))
}

// GetByID returns one claim
// @Summary Get claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id} [get]
func (h *ClaimHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, role := caller(c)
	claim, err := h.claimService.GetByID(c.Context(), id, userID, role)
	if err != nil {
		return respondError(c, err, "Failed to get claim")
	}

	return h.ok(c, "", claim)
}

// Update edits a claim
// @Summary Update claim
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body UpdateClaimRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id} [put]
func (h *ClaimHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	var req UpdateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return respondError(c, err, "")
	}

	userID, role := caller(c)
	claim, err := h.claimService.Update(c.Context(), id, input, userID, role, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to update claim")
	}

	return h.ok(c, "Claim updated successfully", claim)
}

// Submit moves a draft claim to submitted
// @Summary Submit claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id}/submit [put]
func (h *ClaimHandler) Submit(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, _ := caller(c)
	claim, err := h.claimService.Submit(c.Context(), id, userID, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to submit claim")
	}

	return h.ok(c, "Claim submitted successfully", claim)
}

// Review approves or rejects a claim
// @Summary Review claim
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body services.ReviewClaimInput true "Decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id}/review [put]
func (h *ClaimHandler) Review(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	var input services.ReviewClaimInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	userID, _ := caller(c)
	claim, err := h.claimService.Review(c.Context(), id, &input, userID, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to review claim")
	}

	return h.ok(c, "Claim reviewed successfully", claim)
}

// EvaluateFraud records a fraud score on a claim
// @Summary Record fraud evaluation
// @Description Scores above 70 raise priority and send the claim back to review
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body services.FraudInput true "Fraud evaluation"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id}/fraud-detection [put]
func (h *ClaimHandler) EvaluateFraud(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	var input services.FraudInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	userID, _ := caller(c)
	claim, err := h.claimService.EvaluateFraud(c.Context(), id, &input, userID, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to record fraud evaluation")
	}

	return h.ok(c, "Fraud evaluation recorded successfully", claim)
}

// ProcessPayment settles an approved claim
// @Summary Process claim payment
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body services.ProcessPaymentInput true "Payment"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id}/payment [put]
func (h *ClaimHandler) ProcessPayment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	var input services.ProcessPaymentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	userID, _ := caller(c)
	claim, err := h.claimService.ProcessPayment(c.Context(), id, &input, userID, getClientIP(c))
	if err != nil {
		return respondError(c, err, "Failed to process payment")
	}

	return h.ok(c, "Payment processed successfully", claim)
}

// Delete soft-deletes a claim
// @Summary Delete claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id} [delete]
func (h *ClaimHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, _ := caller(c)
	if err := h.claimService.Delete(c.Context(), id, userID, getClientIP(c)); err != nil {
		return respondError(c, err, "Failed to delete claim")
	}

	return response.Success(c, "Claim deleted successfully", nil)
}

// History lists the audit trail of a claim
// @Summary Claim history
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id}/history [get]
func (h *ClaimHandler) History(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err, "")
	}

	userID, role := caller(c)
	if _, err := h.claimService.GetByID(c.Context(), id, userID, role); err != nil {
		return respondError(c, err, "Failed to get claim")
	}

	entries, err := h.claimService.History(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get claim history")
	}

	return response.Success(c, "", entries)
}
