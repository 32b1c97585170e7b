package models

import "time"

// ResultStatus — статусы заявленного игроком результата. После
// approved/rejected/superseded запись больше не меняется (аудит).
type ResultStatus string

const (
	ResultPendingApproval ResultStatus = "pending_approval"
	ResultApproved        ResultStatus = "approved"
	ResultRejected        ResultStatus = "rejected"
	ResultSuperseded      ResultStatus = "superseded"
)

// ReportedOutcome — исход матча со слов репортёра.
type ReportedOutcome string

const (
	OutcomeWin  ReportedOutcome = "win"
	OutcomeLoss ReportedOutcome = "loss"
)

func (o ReportedOutcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

// MatchResult — отдельный леджер самоотчётов, не сливается с Match.
type MatchResult struct {
	ID         string          `json:"result_id"`
	MatchID    string          `json:"match_id"`
	PlayerID   string          `json:"player_id"`
	OpponentID string          `json:"opponent_id"`
	Result     ReportedOutcome `json:"result"`
	Status     ResultStatus    `json:"status"`
	ReportedAt time.Time       `json:"reported_at"`
	ApprovedBy *string         `json:"approved_by,omitempty"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
}
