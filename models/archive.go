package models

import "time"

// DailyArchive — снапшот участия за день. Только добавление, без правок.
type DailyArchive struct {
	ID        string    `json:"archive_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	PlayerID  string    `json:"player_id"`
	Nickname  string    `json:"nickname,omitempty"`
	Rating    int       `json:"rating"`
	Rank      int       `json:"rank,omitempty"`
	Badges    string    `json:"badges,omitempty"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	CreatedAt time.Time `json:"created_at"`
}

// YearlyArchive — итоговый снапшот игрока на конец года перед сбросом
// текущего рейтинга и годовых счётчиков.
type YearlyArchive struct {
	ID          string    `json:"archive_id"`
	Year        int       `json:"year"`
	PlayerID    string    `json:"player_id"`
	Nickname    string    `json:"nickname,omitempty"`
	FinalRating int       `json:"final_rating"`
	FinalRank   int       `json:"final_rank"`
	Badges      string    `json:"badges,omitempty"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	CreatedAt   time.Time `json:"created_at"`
}
