package models

import "time"

// GameType — вариант правил, по которым играется матч.
type GameType string

const (
	GameTypeTrump    GameType = "trump"
	GameTypeCardPlus GameType = "cardplus"
)

func (g GameType) Valid() bool {
	return g == GameTypeTrump || g == GameTypeCardPlus
}

// MatchStatus продвигается только вперёд:
// scheduled -> in_progress -> completed -> approved.
// Боковые ветки: invalidated (из completed/approved, с откатом рейтинга)
// и cancelled (только из scheduled/in_progress).
type MatchStatus string

const (
	MatchScheduled   MatchStatus = "scheduled"
	MatchInProgress  MatchStatus = "in_progress"
	MatchCompleted   MatchStatus = "completed"
	MatchApproved    MatchStatus = "approved"
	MatchInvalidated MatchStatus = "invalidated"
	MatchCancelled   MatchStatus = "cancelled"
)

type Match struct {
	ID           string      `json:"match_id"`
	TournamentID string      `json:"tournament_id"`
	MatchNumber  int         `json:"match_number"`
	Player1ID    string      `json:"player1_id"`
	Player1Name  string      `json:"player1_name,omitempty"`
	Player2ID    string      `json:"player2_id"`
	Player2Name  string      `json:"player2_name,omitempty"`
	GameType     GameType    `json:"game_type"`
	Status       MatchStatus `json:"status"`

	// WinnerID/LoserID намеренно отделены от статуса: в исходных данных
	// встречались строки статуса, записанные в колонку победителя.
	WinnerID *string `json:"winner_id,omitempty"`
	LoserID  *string `json:"loser_id,omitempty"`

	Player1RatingBefore int `json:"player1_rating_before,omitempty"`
	Player1RatingAfter  int `json:"player1_rating_after,omitempty"`
	Player1RatingChange int `json:"player1_rating_change,omitempty"`
	Player2RatingBefore int `json:"player2_rating_before,omitempty"`
	Player2RatingAfter  int `json:"player2_rating_after,omitempty"`
	Player2RatingChange int `json:"player2_rating_change,omitempty"`

	InvalidReason *string `json:"invalid_reason,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// HasPlayer сообщает, участвует ли игрок в матче.
func (m *Match) HasPlayer(playerID string) bool {
	return m.Player1ID == playerID || m.Player2ID == playerID
}

// OpponentOf возвращает ID соперника для игрока матча.
func (m *Match) OpponentOf(playerID string) string {
	switch playerID {
	case m.Player1ID:
		return m.Player2ID
	case m.Player2ID:
		return m.Player1ID
	}
	return ""
}
