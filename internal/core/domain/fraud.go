package domain

// FraudEscalationThreshold is the score above which a claim is pulled into review.
const FraudEscalationThreshold = 70

const (
	MinFraudScore = 0
	MaxFraudScore = 100
)

// FraudDisposition is the outcome of scoring a claim for fraud
type FraudDisposition struct {
	Score    int
	Escalate bool
}

// AssessFraud computes the disposition for a score
func AssessFraud(score int) FraudDisposition {
	return FraudDisposition{
		Score:    score,
		Escalate: score > FraudEscalationThreshold,
	}
}

// ValidFraudScore reports whether score lies in [0, 100]
func ValidFraudScore(score int) bool {
	return score >= MinFraudScore && score <= MaxFraudScore
}
