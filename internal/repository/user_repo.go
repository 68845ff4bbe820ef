package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/models"
)

var ErrOAuthAlreadyLinked = errors.New("oauth provider already linked")

const userColumns = `id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at`

// UserRepository handles database operations for users and refresh sessions
type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a password account.
func (r *UserRepository) CreateUser(email, passwordHash, name string) (*models.User, error) {
	return r.insertUser(email, passwordHash, name, "", "")
}

// CreateOAuthUser inserts an account that signs in through a provider only.
func (r *UserRepository) CreateOAuthUser(email, name, provider, subject string) (*models.User, error) {
	return r.insertUser(email, "", name, provider, subject)
}

func (r *UserRepository) insertUser(email, passwordHash, name, provider, subject string) (*models.User, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO users (email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, email, passwordHash, name, provider, subject, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:            id,
		Email:         email,
		PasswordHash:  passwordHash,
		Name:          name,
		OAuthProvider: provider,
		OAuthSubject:  subject,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetUserByEmail returns nil, nil when no user matches.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.getUser("SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

// GetUserByID returns nil, nil when no user matches.
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	return r.getUser("SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetUserByOAuth returns nil, nil when no user matches.
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	return r.getUser("SELECT "+userColumns+" FROM users WHERE oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

func (r *UserRepository) getUser(query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetAllUsers returns every user, oldest first.
func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// LinkOAuthProvider attaches a provider identity to an account that has none yet.
func (r *UserRepository) LinkOAuthProvider(userID int64, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, updated_at = ?
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.Exec(query, provider, subject, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return ErrOAuthAlreadyLinked
	}
	return nil
}

// CreateSession stores a refresh session.
func (r *UserRepository) CreateSession(sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, sessionID, userID, expiresAt.UTC(), now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession returns nil, nil when the session does not exist.
func (r *UserRepository) GetSession(sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (r *UserRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many went.
func (r *UserRepository) DeleteExpiredSessions() (int64, error) {
	result, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
