package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardnight/tournament-system/cache"
	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/repositories"
)

const minPasswordLength = 8

// Claims — полезная нагрузка JWT: ID игрока и роль.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Nickname string
	Email    string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Player, error)
	Login(ctx context.Context, email, password string) (string, *models.Player, error)
	ConfirmEmail(ctx context.Context, token string) (*models.Player, error)
	// CreatePlayer — ручное заведение игрока админом, без пароля и
	// подтверждения почты.
	CreatePlayer(ctx context.Context, nickname, email string) (*models.Player, error)
	DeactivatePlayer(ctx context.Context, playerID string) error
	ParseToken(tokenString string) (*Claims, error)
}

type authService struct {
	playerRepo repositories.PlayerRepository
	cache      *cache.Cache
	logger     *slog.Logger
	jwtSecret  []byte
	tokenTTL   time.Duration
}

func NewAuthService(playerRepo repositories.PlayerRepository, c *cache.Cache, logger *slog.Logger, jwtSecret string, tokenTTL time.Duration) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		playerRepo: playerRepo,
		cache:      c,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Player, error) {
	nickname := strings.TrimSpace(input.Nickname)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if nickname == "" {
		return nil, ErrNicknameRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}

	if err := s.checkUnique(ctx, nickname, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token := uuid.NewString()
	now := time.Now()
	player := &models.Player{
		ID:                     uuid.NewString(),
		Nickname:               nickname,
		Email:                  email,
		PasswordHash:           string(hash),
		Role:                   models.RolePlayer,
		CurrentRating:          models.InitialRatingSignup,
		EmailConfirmationToken: &token,
		CreatedAt:              now,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(cacheKeyPlayers, cacheKeyRankings)
	}
	s.logger.InfoContext(ctx, "player registered",
		slog.String("player_id", player.ID), slog.String("nickname", nickname))
	return player, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *models.Player, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	player, err := s.playerRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return "", nil, ErrAuthInvalidCredentials
		}
		return "", nil, err
	}
	if player.Deactivated {
		return "", nil, fmt.Errorf("%w: player %s", ErrPlayerDeactivated, player.ID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthInvalidCredentials
	}

	claims := Claims{
		UserID: player.ID,
		Role:   string(player.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	now := time.Now()
	player.LastActiveAt = &now
	if err := s.playerRepo.Update(ctx, player); err != nil {
		s.logger.WarnContext(ctx, "failed to record last activity",
			slog.String("player_id", player.ID), slog.Any("error", err))
	}
	return signed, player, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) (*models.Player, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrConfirmationTokenBad
	}
	player, err := s.playerRepo.GetByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrConfirmationTokenBad
		}
		return nil, err
	}
	if player.EmailVerified {
		return nil, ErrEmailAlreadyConfirmed
	}
	player.EmailVerified = true
	player.EmailConfirmationToken = nil
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *authService) CreatePlayer(ctx context.Context, nickname, email string) (*models.Player, error) {
	nickname = strings.TrimSpace(nickname)
	email = strings.ToLower(strings.TrimSpace(email))
	if nickname == "" {
		return nil, ErrNicknameRequired
	}
	if err := s.checkUnique(ctx, nickname, email); err != nil {
		return nil, err
	}

	player := &models.Player{
		ID:            uuid.NewString(),
		Nickname:      nickname,
		Email:         email,
		Role:          models.RolePlayer,
		CurrentRating: models.InitialRatingAdmin,
		EmailVerified: true,
		CreatedAt:     time.Now(),
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(cacheKeyPlayers, cacheKeyRankings)
	}
	return player, nil
}

// DeactivatePlayer — мягкое удаление: игрок исчезает из рейтинга, но
// его история матчей остаётся.
func (s *authService) DeactivatePlayer(ctx context.Context, playerID string) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return err
	}
	player.Deactivated = true
	player.TournamentActive = false
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(cacheKeyPlayers, cacheKeyRankings)
	}
	return nil
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *authService) checkUnique(ctx context.Context, nickname, email string) error {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range players {
		if email != "" && strings.EqualFold(p.Email, email) {
			return ErrEmailTaken
		}
		if strings.EqualFold(p.Nickname, nickname) {
			return ErrNicknameTaken
		}
	}
	return nil
}
