package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/repository"
)

var (
	// ErrUsernameTaken indicates a signup collided with an existing account.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials indicates an unknown account or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountGone indicates a token references a deleted account.
	ErrAccountGone = errors.New("account no longer exists")
)

// AuthService handles signup, login, logout and session resumption.
type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (dto.SessionResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.TokenResponse, error)
	Logout(ctx context.Context, username string) error
	// Resume re-validates that the account behind a persisted token still
	// exists. A deleted account invalidates the token.
	Resume(ctx context.Context, username string) (dto.SessionResponse, error)
	OnlineUsers(ctx context.Context, caller string) ([]dto.AccountSummary, error)
}

type authService struct {
	accounts  repository.AccountRepository
	validator *validator.Validate
	logger    zerolog.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates the auth service.
func NewAuthService(accounts repository.AccountRepository, validate *validator.Validate, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		accounts:  accounts,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (dto.SessionResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	if _, err := s.accounts.GetByUsername(ctx, req.Username); err == nil {
		return dto.SessionResponse{}, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SessionResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	account := models.Account{
		Username:     req.Username,
		PasswordHash: string(hash),
	}

	if err := s.accounts.Create(ctx, &account); err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().Str("username", account.Username).Msg("account created")

	return dto.SessionResponse{Username: account.Username, IsModerator: account.IsModerator}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.TokenResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return dto.TokenResponse{}, err
	}

	account, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, ErrInvalidCredentials
		}
		return dto.TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	if err := s.accounts.SetOnline(ctx, account.Username, true); err != nil {
		s.logger.Warn().Err(err).Str("username", account.Username).Msg("failed to mark account online")
	}

	token, err := s.signToken(account)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	return dto.TokenResponse{
		Token:       token,
		Username:    account.Username,
		IsModerator: account.IsModerator,
	}, nil
}

func (s *authService) Logout(ctx context.Context, username string) error {
	return s.accounts.SetOnline(ctx, username, false)
}

func (s *authService) Resume(ctx context.Context, username string) (dto.SessionResponse, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrAccountGone
		}
		return dto.SessionResponse{}, err
	}

	return dto.SessionResponse{
		Username:    account.Username,
		IsModerator: account.IsModerator,
		LastSeen:    account.LastSeen,
	}, nil
}

func (s *authService) OnlineUsers(ctx context.Context, caller string) ([]dto.AccountSummary, error) {
	accounts, err := s.accounts.ListOnline(ctx, caller)
	if err != nil {
		return nil, err
	}
	return dto.NewAccountSummarySlice(accounts), nil
}

func (s *authService) signToken(account models.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       account.Username,
		"moderator": account.IsModerator,
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
