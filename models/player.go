package models

import "time"

type PlayerRole string

const (
	RolePlayer PlayerRole = "player"
	RoleAdmin  PlayerRole = "admin"
)

// Начальные рейтинги зависят от пути создания игрока:
// самостоятельная регистрация стартует с 1200, создание админом — с 1500.
const (
	InitialRatingSignup = 1200
	InitialRatingAdmin  = 1500
)

type Player struct {
	ID           string     `json:"id"`
	Nickname     string     `json:"nickname"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         PlayerRole `json:"role"`

	CurrentRating int `json:"current_rating"`
	AnnualWins    int `json:"annual_wins"`
	AnnualLosses  int `json:"annual_losses"`
	TotalWins     int `json:"total_wins"`
	TotalLosses   int `json:"total_losses"`

	// Список бейджей чемпиона, свободный текст через запятую.
	ChampionBadges string `json:"champion_badges,omitempty"`

	TrumpRuleExperienced    bool       `json:"trump_rule_experienced"`
	FirstTrumpGameDate      *time.Time `json:"first_trump_game_date,omitempty"`
	CardPlusRuleExperienced bool       `json:"cardplus_rule_experienced"`
	FirstCardPlusGameDate   *time.Time `json:"first_cardplus_game_date,omitempty"`

	TournamentActive bool `json:"tournament_active"`
	EmailVerified    bool `json:"email_verified"`
	// Игрок с историей матчей не удаляется, только деактивируется.
	Deactivated bool `json:"deactivated,omitempty"`

	EmailConfirmationToken *string `json:"-"`

	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// RankingEntry — строка публичного рейтинга.
type RankingEntry struct {
	Rank          int    `json:"rank"`
	PlayerID      string `json:"player_id"`
	Nickname      string `json:"nickname"`
	CurrentRating int    `json:"current_rating"`
	AnnualWins    int    `json:"annual_wins"`
	AnnualLosses  int    `json:"annual_losses"`
	ChampionBadge string `json:"champion_badges,omitempty"`
}
