package auth

import (
	"errors"
	"log/slog"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
)

// Service handles credential checks and token issuance.
type Service struct {
	repo     RepositoryAPI
	tokenGen TokenGeneratorAPI
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tokenGen: tokenGen,
		logger:   logger,
	}
}

func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	record, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := VerifyPassword(record.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if !record.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(record.ID, record.Email, record.Role)
}

func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGen.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	record, err := s.repo.GetByID(claims.UserID)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if !record.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(record.ID, record.Email, record.Role)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateAccessToken(tokenString)
}

func (s *Service) GetUser(userID string) (*User, error) {
	record, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, ErrUserInactive
	}

	return &User{
		ID:    record.ID,
		Email: record.Email,
		Name:  record.Name,
		Role:  record.Role,
	}, nil
}

func (s *Service) issueTokens(userID, email, role string) (AuthTokens, error) {
	accessToken, err := s.tokenGen.GenerateAccessToken(userID, email, role)
	if err != nil {
		s.logger.Error("failed to generate access token", "error", err, "user_id", userID)
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGen.GenerateRefreshToken(userID, email, role)
	if err != nil {
		s.logger.Error("failed to generate refresh token", "error", err, "user_id", userID)
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
