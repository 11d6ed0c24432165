// Package auth issues and verifies session tokens for password accounts.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Token validation failures. Authenticate wraps them in an UNAUTHORIZED
// APIError; callers can still match them with errors.Is.
var (
	ErrInvalidCredentials = stderrors.New("invalid credentials")
	ErrInvalidToken       = stderrors.New("invalid token")
)

const issuer = "impactusall"

// Claims is the JWT payload. Role and tenant ids are informational; the
// principal is always rebuilt from the stored user.
type Claims struct {
	Role      string `json:"role"`
	CharityID string `json:"charity_id,omitempty"`
	DonorID   string `json:"donor_id,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned on successful login
type AuthResponse struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Service handles password login and token verification
type Service struct {
	users     repository.UserRepository
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates an auth service. ttl defaults to 24h.
func NewService(users repository.UserRepository, jwtSecret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{users: users, jwtSecret: jwtSecret, ttl: ttl, now: time.Now}
}

// HashPassword returns the bcrypt hash stored in users.password_hash
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", apierrors.ValidationError("password", "password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Login checks the password and issues a signed token. Unknown emails and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil, apierrors.Unauthorized(ErrInvalidCredentials.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.L().Info("Failed login", zap.String("email", repository.NormalizeEmail(req.Email)))
		return nil, apierrors.Unauthorized(ErrInvalidCredentials.Error())
	}
	return s.issue(user)
}

// IssueToken signs a token for user without checking a password
func (s *Service) IssueToken(user *models.User) (*AuthResponse, error) {
	return s.issue(user)
}

func (s *Service) issue(user *models.User) (*AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if user.CharityID != nil {
		claims.CharityID = *user.CharityID
	}
	if user.DonorID != nil {
		claims.DonorID = *user.DonorID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResponse{Token: signed, User: user, ExpiresAt: expiresAt}, nil
}

// ParseToken verifies signature, issuer and expiry and returns the claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a bearer token to the principal of the stored user,
// so role changes apply without re-login.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*identity.Principal, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, apierrors.Unauthorized("invalid or expired token").WithCause(err)
	}
	user, err := s.users.GetUser(ctx, claims.Subject)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil, apierrors.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return identity.FromUser(user), nil
}
