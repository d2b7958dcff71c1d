package waiver

import "time"

type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
	OutcomeRejected   Outcome = "rejected"
)

// Status maps a report outcome to the claim status persisted in the ledger.
func (o Outcome) Status() Status {
	switch o {
	case OutcomeSuccessful:
		return StatusSuccessful
	case OutcomeRejected:
		return StatusRejected
	default:
		return StatusFailed
	}
}

type ClaimResult struct {
	ClaimID        string  `json:"claimId"`
	TeamID         string  `json:"teamId"`
	Outcome        Outcome `json:"outcome"`
	Reason         Reason  `json:"reason,omitempty"`
	FinalBidAmount *int64  `json:"finalBidAmount,omitempty"`
}

type BudgetDelta struct {
	TeamID    string `json:"teamId"`
	SpentFaab int64  `json:"spentFaab"`
	Delta     int64  `json:"delta"`
}

type RosterDelta struct {
	TeamID  string `json:"teamId"`
	Added   string `json:"added,omitempty"`
	Dropped string `json:"dropped,omitempty"`
}

// SettlementReport describes everything one processing pass decided.
type SettlementReport struct {
	PassID        string        `json:"passId"`
	LeagueID      string        `json:"leagueId"`
	Mode          Mode          `json:"mode"`
	Cutoff        time.Time     `json:"cutoff"`
	ProcessedAt   time.Time     `json:"processedAt"`
	Results       []ClaimResult `json:"results"`
	BudgetDeltas  []BudgetDelta `json:"budgetDeltas"`
	RosterDeltas  []RosterDelta `json:"rosterDeltas"`
	PriorityOrder []string      `json:"priorityOrder,omitempty"`
}

// Count returns how many results carry the given outcome.
func (r SettlementReport) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Result looks up the result recorded for a claim.
func (r SettlementReport) Result(claimID string) (ClaimResult, bool) {
	for _, res := range r.Results {
		if res.ClaimID == claimID {
			return res, true
		}
	}
	return ClaimResult{}, false
}
