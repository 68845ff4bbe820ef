package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/logger"
	"nihongo/internal/models"
	"nihongo/internal/repository"
	"nihongo/internal/security"
	"nihongo/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrOAuthIdentity      = errors.New("missing oauth provider information")
)

// TokenPair is what a successful sign-in hands back: a short-lived access
// token and an opaque refresh token backed by a sessions row.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// AuthService handles registration, sign-in and token rotation.
type AuthService struct {
	db              *database.DB
	users           *repository.UserRepository
	tokens          *security.TokenIssuer
	email           *EmailService
	sessionDuration time.Duration
	log             *logger.Logger
}

func NewAuthService(db *database.DB, tokens *security.TokenIssuer, email *EmailService, sessionDuration time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		db:              db,
		users:           repository.NewUserRepository(db),
		tokens:          tokens,
		email:           email,
		sessionDuration: sessionDuration,
		log:             log,
	}
}

// Register creates a password account and sends the welcome email. It does
// not sign the learner in.
func (s *AuthService) Register(ctx context.Context, email, password, confirm, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidatePasswordConfirmation(password, confirm); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(email, hash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			s.log.Warn("welcome email failed", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

// Login checks the password and opens a refresh session.
func (s *AuthService) Login(email, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.openSession(s.users, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// consumed in the same transaction.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, *models.User, error) {
	var (
		pair *TokenPair
		user *models.User
	)
	err := s.db.InTx(func(tx *database.Tx) error {
		users := repository.NewUserRepository(tx)

		session, err := users.GetSession(refreshToken)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if err := users.DeleteSession(refreshToken); err != nil {
			return err
		}
		if session.IsExpired() {
			return ErrSessionExpired
		}

		user, err = users.GetUserByID(session.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		pair, err = s.openSession(users, user)
		return err
	})
	if errors.Is(err, ErrSessionExpired) {
		// the expired row still has to go
		_ = s.users.DeleteSession(refreshToken)
	}
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Logout ends the refresh session. Unknown tokens are not an error.
func (s *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.users.DeleteSession(refreshToken); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(accessToken string) (*models.User, error) {
	claims, err := s.tokens.Parse(accessToken)
	if err != nil {
		return nil, err
	}
	id, _ := claims.UserID()

	user, err := s.users.GetUserByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// OAuthLogin signs in with a provider identity, linking it to an existing
// account with the same email or creating a new one.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*TokenPair, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, ErrOAuthIdentity
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existing, err := s.users.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		switch {
		case existing != nil && existing.OAuthProvider != "" && existing.OAuthProvider != provider:
			return nil, nil, ErrEmailTaken
		case existing != nil:
			if err := s.users.LinkOAuthProvider(existing.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = existing
		default:
			if strings.TrimSpace(name) == "" {
				name, _, _ = strings.Cut(email, "@")
			}
			user, err = s.users.CreateOAuthUser(email, name, provider, subject)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
		}
	}

	pair, err := s.openSession(s.users, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// CleanupExpiredSessions removes expired refresh sessions.
func (s *AuthService) CleanupExpiredSessions() (int64, error) {
	n, err := s.users.DeleteExpiredSessions()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

func (s *AuthService) openSession(users *repository.UserRepository, user *models.User) (*TokenPair, error) {
	access, accessExpires, err := s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	refreshExpires := time.Now().Add(s.sessionDuration)
	session, err := users.CreateSession(security.NewID(), user.ID, refreshExpires)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     session.ID,
		RefreshExpiresAt: refreshExpires,
	}, nil
}
