// Package auth implements the shop's shared-password gate and the signed
// session tokens handed out after a successful login.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ukydev/garage-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// sessionSubject is the subject of every shop session token.
const sessionSubject = "shop"

// Service handles authentication operations
type Service struct {
	passwordHash []byte
	jwtSecret    []byte
	tokenExp     time.Duration
	now          func() time.Time
}

// NewService creates a new authentication service. An empty password disables the gate.
func NewService(password, secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	s := &Service{jwtSecret: []byte(secret), tokenExp: ttl, now: time.Now}
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		s.passwordHash = []byte(hash)
	}
	return s, nil
}

// Enabled reports whether a shop password is configured.
func (s *Service) Enabled() bool {
	return len(s.passwordHash) > 0
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks the shared shop password
func (s *Service) CheckPassword(password string) bool {
	if !s.Enabled() {
		return true
	}
	return bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
}

// Login verifies the shop password and issues a session token.
func (s *Service) Login(password string) (models.LoginResponse, error) {
	if !s.CheckPassword(password) {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	token, session, err := s.GenerateToken()
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// GenerateToken signs a new session token.
func (s *Service) GenerateToken() (string, models.Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	session := models.Session{
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenExp),
	}
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", models.Session{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, session, nil
}

// ValidateToken validates a JWT token and returns the session it carries
func (s *Service) ValidateToken(tokenString string) (models.Session, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(sessionSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Session{}, ErrExpiredToken
		}
		return models.Session{}, ErrInvalidToken
	}
	if !token.Valid || claims.ID == "" || claims.IssuedAt == nil {
		return models.Session{}, ErrInvalidToken
	}

	return models.Session{
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.UTC(),
		ExpiresAt: claims.ExpiresAt.UTC(),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
