package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/logger"
	"nihongo/internal/models"
	"nihongo/internal/repository"
)

const backupVersion = "1.0"

// BackupData is the portable dump of learner accounts and their progress.
// Refresh sessions are not carried over.
type BackupData struct {
	Version      string                   `json:"version"`
	ExportedAt   time.Time                `json:"exported_at"`
	DatabaseType string                   `json:"database_type"`
	Users        []UserBackup             `json:"users"`
	Progress     []models.LessonProgress  `json:"progress"`
	Attempts     []models.PracticeAttempt `json:"attempts"`
}

// UserBackup keeps the fields models.User hides from JSON.
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BackupService exports and restores the database.
type BackupService struct {
	db       *database.DB
	users    *repository.UserRepository
	progress *repository.ProgressRepository
	log      *logger.Logger
}

func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{
		db:       db,
		users:    repository.NewUserRepository(db),
		progress: repository.NewProgressRepository(db),
		log:      log,
	}
}

// Export writes a backup to outputPath.
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}
	s.log.Info("database exported", "path", outputPath)
	return nil
}

// ExportToWriter encodes the backup as indented JSON.
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.snapshot()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	s.log.Info("exported",
		"users", len(backup.Users),
		"progress", len(backup.Progress),
		"attempts", len(backup.Attempts))
	return nil
}

func (s *BackupService) snapshot() (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	users, err := s.users.GetAllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
	}

	if backup.Progress, err = s.progress.AllProgress(); err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	if backup.Attempts, err = s.progress.AllAttempts(); err != nil {
		return nil, fmt.Errorf("failed to export attempts: %w", err)
	}
	return backup, nil
}

// Import restores a backup file.
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup in one transaction; a failure leaves
// the database untouched.
func (s *BackupService) ImportFromReader(r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.log.Info("importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	err := s.db.InTx(func(tx *database.Tx) error {
		for _, u := range backup.Users {
			_, err := tx.Exec(`
				INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, u.ID, u.Email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.CreatedAt, u.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import user %d: %w", u.ID, err)
			}
		}
		for _, p := range backup.Progress {
			_, err := tx.Exec(`
				INSERT INTO lesson_progress (id, user_id, lesson_slug, attempts, best_correct, total_questions, completed_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, p.ID, p.UserID, p.LessonSlug, p.Attempts, p.BestCorrect, p.TotalQuestions, p.CompletedAt, p.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import progress %d: %w", p.ID, err)
			}
		}
		for _, a := range backup.Attempts {
			_, err := tx.Exec(`
				INSERT INTO practice_attempts (id, user_id, lesson_slug, total_questions, correct_answers, passed, submitted_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, a.ID, a.UserID, a.LessonSlug, a.TotalQuestions, a.CorrectAnswers, a.Passed, a.SubmittedAt)
			if err != nil {
				return fmt.Errorf("failed to import attempt %d: %w", a.ID, err)
			}
		}
		return s.resetSequences(tx)
	})
	if err != nil {
		return err
	}

	s.log.Info("import completed",
		"users", len(backup.Users),
		"progress", len(backup.Progress),
		"attempts", len(backup.Attempts))
	return nil
}

// resetSequences moves PostgreSQL serial counters past the imported ids.
// SQLite and MySQL advance their counters on explicit inserts.
func (s *BackupService) resetSequences(tx *database.Tx) error {
	if s.db.Dialect.DriverName() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "lesson_progress", "practice_attempts"} {
		query := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`, table, table)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

// ClearTables deletes all rows, children first.
func (s *BackupService) ClearTables() error {
	return s.db.InTx(func(tx *database.Tx) error {
		for _, table := range []string{"practice_attempts", "lesson_progress", "sessions", "users"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			s.log.Info("cleared table", "table", table)
		}
		return nil
	})
}
