package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/pkg/utils"
)

const minPasswordLength = 6

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService registers users and issues and revokes session tokens.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(users UserStore, sessions SessionStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, secret: []byte(secret), ttl: ttl}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)

	if input.Username == "" {
		return nil, invalidInput("username is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, invalidInput("invalid email address")
	}
	if len(input.Password) < minPasswordLength {
		return nil, invalidInput("password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.users.FindUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: input.Username,
		Email:    input.Email,
		Role:     models.RoleUser,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("Registered user %s", user.ID)
	return user, nil
}

// Login verifies the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := user.CheckPassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.ttl)
	token, err := utils.GenerateToken(s.secret, user.ID, user.Email, string(user.Role), uuid.NewString(), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout drops the session's staged booking and revokes its token. A booking
// that was charged but not saved is kept for recovery.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	staged, err := s.sessions.StagedBooking(ctx, claims.SessionID)
	if err != nil {
		return err
	}
	if staged != nil && staged.IsCharged() {
		log.Printf("Keeping charged booking %s (charge %s, parcel %s) of session %s after logout",
			staged.ID, staged.ChargeID, staged.TrackingNumber, claims.SessionID)
	} else if err := s.sessions.ClearStagedBooking(ctx, claims.SessionID); err != nil {
		return err
	}

	remaining := s.ttl
	if claims.ExpiresAt != nil {
		remaining = time.Until(claims.ExpiresAt.Time)
	}
	return s.sessions.RevokeSession(ctx, claims.SessionID, remaining)
}

// Authenticate validates token and rejects sessions that were logged out.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := utils.ValidateToken(s.secret, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessions.IsSessionRevoked(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// PromoteToAdmin grants the admin role to the user registered with email.
func (s *AuthService) PromoteToAdmin(ctx context.Context, email string) error {
	return s.users.UpdateUserRole(ctx, normalizeEmail(email), models.RoleAdmin)
}

// RequireAdmin denies with ErrForbidden unless userID belongs to an admin.
// It checks the stored role, not the token claim.
func RequireAdmin(ctx context.Context, users UserStore, userID string) error {
	user, err := users.FindUserByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
