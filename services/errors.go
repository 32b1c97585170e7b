package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrNicknameRequired   = errors.New("nickname is required")
	ErrUnknownGameType    = errors.New("unknown game type")
	ErrSamePlayer         = errors.New("match requires two distinct players")
	ErrWinnerNotInMatch   = errors.New("winner is not one of the match participants")
	ErrReporterNotInMatch = errors.New("reporter is not one of the match participants")
	ErrOutcomeInvalid     = errors.New("reported outcome must be win or loss")

	// Лайфсайкл: переход из недопустимого состояния
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrResultAlreadyResolved  = errors.New("match result is already resolved")
	ErrMatchNotDeletable      = errors.New("only scheduled matches can be deleted")

	// Ошибки конфликтов
	ErrEmailTaken          = errors.New("email address is already in use")
	ErrNicknameTaken       = errors.New("nickname is already in use")
	ErrPlayerAlreadyActive = errors.New("player is already active in a tournament")
	ErrTournamentFull      = errors.New("tournament is full")
	ErrPlayerDeactivated   = errors.New("player account is deactivated")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyConfirmed  = errors.New("email already confirmed")
	ErrConfirmationTokenBad   = errors.New("invalid or expired confirmation token")

	// Ошибки турниров
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity         = errors.New("tournament max participants must be positive")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentNotRunning              = errors.New("tournament is not accepting participants")
)
