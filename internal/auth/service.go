package auth

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/user"
)

// UserDirectory is the slice of user storage the auth flow needs.
type UserDirectory interface {
	GetByEmail(email string) (*user.User, error)
	GetByID(id int64) (*user.User, error)
}

type Service struct {
	users  UserDirectory
	tokens TokenGenerator
	logger *slog.Logger
}

func NewService(users UserDirectory, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate validates credentials and returns a token pair. Blocked
// accounts are rejected even with a correct password.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByEmail(dto.Email)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if u.Blocked {
		s.logger.Warn("login rejected for blocked account", "user_id", u.ID)
		return AuthTokens{}, internal.ErrUserBlocked
	}

	return s.issueTokens(u)
}

// RefreshTokens validates a refresh token and issues a new pair. The user is
// re-read so a block applied after login takes effect on the next refresh.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := claims.ParsedUserID()
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if u.Blocked {
		return AuthTokens{}, internal.ErrUserBlocked
	}

	return s.issueTokens(u)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// CurrentUser resolves an access token to its live user record. Used by the
// request middleware so every request sees the current role, grants and
// blocked flag rather than whatever was true when the token was minted.
func (s *Service) CurrentUser(tokenString string) (*user.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := claims.ParsedUserID()
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	if u.Blocked {
		return nil, internal.ErrUserBlocked
	}
	return u, nil
}

func (s *Service) issueTokens(u *user.User) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}
	return AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}
