package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service backs the sandbox login endpoints.
type Service struct {
	users  UserRepository
	tokens TokenGenerator
	cost   int
}

func NewService(users UserRepository, tokens TokenGenerator, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, tokens: tokens, cost: bcryptCost}
}

// Authenticate checks the password of dto.Email and issues a token pair.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	hash, userID, err := s.users.GetPasswordForUsername(dto.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(dto.Password)) != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}
	return s.pair(userID, dto.Email)
}

func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.pair(claims.UserID, claims.Email)
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.tokens.ValidateToken(token, TokenTypeAccess)
}

func (s *Service) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	return string(b), err
}

func (s *Service) pair(userID, email string) (AuthTokens, error) {
	var out AuthTokens
	var err error
	if out.AccessToken, err = s.tokens.GenerateAccessToken(userID, email); err != nil {
		return AuthTokens{}, err
	}
	if out.RefreshToken, err = s.tokens.GenerateRefreshToken(userID, email); err != nil {
		return AuthTokens{}, err
	}
	out.ExpiresIn = int64(s.tokens.AccessTTL() / time.Second)
	return out, nil
}
