package models

import "time"

// TournamentStatus — статусы турнира. Продвигаются только вперёд:
// upcoming -> active -> completed.
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Date                string           `json:"date"` // YYYY-MM-DD
	StartTime           string           `json:"start_time,omitempty"`
	Location            *string          `json:"location,omitempty"`
	Status              TournamentStatus `json:"status"`
	MaxParticipants     int              `json:"max_participants"`
	CurrentParticipants int              `json:"current_participants"`
	Type                string           `json:"tournament_type,omitempty"`
	Description         *string          `json:"description,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	EndedAt             *time.Time       `json:"ended_at,omitempty"`
}
