package domain

// Role represents the caller role carried in the access token
type Role string

const (
	RoleUser      Role = "user"
	RoleAgency    Role = "agency"
	RoleInsurance Role = "insurance"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgency, RoleInsurance, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to back-office staff
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAgency || r == RoleInsurance
}

// CanManage reports whether the role may edit records it does not own
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleAgency
}

// PolicyStatus is the lifecycle status of an insurance policy
type PolicyStatus string

const (
	PolicyPending   PolicyStatus = "pending"
	PolicyActive    PolicyStatus = "active"
	PolicyExpired   PolicyStatus = "expired"
	PolicyCancelled PolicyStatus = "cancelled"
)

// Valid reports whether s is a known policy status
func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyPending, PolicyActive, PolicyExpired, PolicyCancelled:
		return true
	}
	return false
}

// InsuranceType is the kind of coverage a policy provides
type InsuranceType string

const (
	InsuranceComprehensive InsuranceType = "comprehensive"
	InsuranceCollision     InsuranceType = "collision"
	InsuranceLiability     InsuranceType = "liability"
	InsuranceTheft         InsuranceType = "theft"
	InsuranceFire          InsuranceType = "fire"
	InsuranceThirdParty    InsuranceType = "third-party"
)

// Valid reports whether t is a known insurance type
func (t InsuranceType) Valid() bool {
	switch t {
	case InsuranceComprehensive, InsuranceCollision, InsuranceLiability,
		InsuranceTheft, InsuranceFire, InsuranceThirdParty:
		return true
	}
	return false
}

// PremiumPaymentStatus tracks payment of the policy premium
type PremiumPaymentStatus string

const (
	PremiumPaid      PremiumPaymentStatus = "paid"
	PremiumPending   PremiumPaymentStatus = "pending"
	PremiumOverdue   PremiumPaymentStatus = "overdue"
	PremiumCancelled PremiumPaymentStatus = "cancelled"
)

func (s PremiumPaymentStatus) Valid() bool {
	switch s {
	case PremiumPaid, PremiumPending, PremiumOverdue, PremiumCancelled:
		return true
	}
	return false
}

// PremiumPaymentMethod is how the policy holder pays the premium
type PremiumPaymentMethod string

const (
	PremiumByCreditCard   PremiumPaymentMethod = "credit_card"
	PremiumByBankTransfer PremiumPaymentMethod = "bank_transfer"
	PremiumByCash         PremiumPaymentMethod = "cash"
	PremiumByCheck        PremiumPaymentMethod = "check"
)

func (m PremiumPaymentMethod) Valid() bool {
	switch m {
	case PremiumByCreditCard, PremiumByBankTransfer, PremiumByCash, PremiumByCheck:
		return true
	}
	return false
}

// ClaimStatus is the workflow status of a claim
type ClaimStatus string

const (
	ClaimDraft       ClaimStatus = "draft"
	ClaimSubmitted   ClaimStatus = "submitted"
	ClaimUnderReview ClaimStatus = "under_review"
	ClaimApproved    ClaimStatus = "approved"
	ClaimRejected    ClaimStatus = "rejected"
	ClaimProcessed   ClaimStatus = "processed"
	ClaimClosed      ClaimStatus = "closed"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimDraft, ClaimSubmitted, ClaimUnderReview, ClaimApproved,
		ClaimRejected, ClaimProcessed, ClaimClosed:
		return true
	}
	return false
}

// Priority orders claims in the review queue
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// IncidentType classifies the reported incident
type IncidentType string

const (
	IncidentAccident        IncidentType = "accident"
	IncidentTheft           IncidentType = "theft"
	IncidentDamage          IncidentType = "damage"
	IncidentVandalism       IncidentType = "vandalism"
	IncidentFire            IncidentType = "fire"
	IncidentNaturalDisaster IncidentType = "natural_disaster"
	IncidentCollision       IncidentType = "collision"
	IncidentOther           IncidentType = "other"
)

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentAccident, IncidentTheft, IncidentDamage, IncidentVandalism,
		IncidentFire, IncidentNaturalDisaster, IncidentCollision, IncidentOther:
		return true
	}
	return false
}

// PartyRole is the role of a person involved in an incident
type PartyRole string

const (
	PartyInsured    PartyRole = "insured"
	PartyThirdParty PartyRole = "third_party"
	PartyWitness    PartyRole = "witness"
	PartyPolice     PartyRole = "police"
	PartyExpert     PartyRole = "expert"
)

func (r PartyRole) Valid() bool {
	switch r {
	case PartyInsured, PartyThirdParty, PartyWitness, PartyPolice, PartyExpert:
		return true
	}
	return false
}

// SettlementMethod is how a claim payout is paid
type SettlementMethod string

const (
	SettlementBankTransfer  SettlementMethod = "bank_transfer"
	SettlementCheck         SettlementMethod = "check"
	SettlementCash          SettlementMethod = "cash"
	SettlementDirectDeposit SettlementMethod = "direct_deposit"
)

func (m SettlementMethod) Valid() bool {
	switch m {
	case SettlementBankTransfer, SettlementCheck, SettlementCash, SettlementDirectDeposit:
		return true
	}
	return false
}
