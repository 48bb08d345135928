package services

import (
	"errors"
	"time"

	"couple-planner/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrServerMisconfigured means the server cannot issue tokens at all (no JWT
// secret). Distinct from ErrUnauthenticated so it maps to a 500, not a 401.
var ErrServerMisconfigured = errors.New("server misconfigured")

type AuthService interface {
	Login(username, password string) (string, error)
}

// AuthServiceImpl authenticates against a small fixed identity set sharing a
// single bcrypt password hash, and issues time-bound HS256 tokens bound to a
// fixed issuer and audience.
type AuthServiceImpl struct {
	cfg config.AuthConfig
	now func() time.Time
}

func NewAuthService(cfg config.AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg, now: time.Now}
}

func (s *AuthServiceImpl) Login(username, password string) (string, error) {
	if !s.allowedUser(username) {
		return "", ErrUnauthenticated
	}

	if s.cfg.PasswordHash == "" {
		return "", ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)); err != nil {
		return "", ErrUnauthenticated
	}

	if s.cfg.JWTSecret == "" {
		return "", ErrServerMisconfigured
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user": username,
		"iss":  s.cfg.Issuer,
		"aud":  s.cfg.Audience,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", err
	}

	return signed, nil
}

func (s *AuthServiceImpl) allowedUser(username string) bool {
	for _, u := range s.cfg.Users {
		if u == username {
			return true
		}
	}
	return false
}
