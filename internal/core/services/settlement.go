package services

import "assurance-claims/internal/adapters/persistence/models"

// SettlementCalculator computes claim payouts
type SettlementCalculator struct{}

// ComputePayout returns the approved amount when one was recorded, else the estimate
func (SettlementCalculator) ComputePayout(claim *models.Claim) float64 {
	if claim.ApprovedAmount != nil {
		return *claim.ApprovedAmount
	}
	return claim.EstimatedAmount
}
