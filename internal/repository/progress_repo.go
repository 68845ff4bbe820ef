package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/models"
)

const progressColumns = `id, user_id, lesson_slug, attempts, best_correct, total_questions, completed_at, updated_at`

// ProgressRepository stores graded practice attempts and the per-lesson
// progress derived from them.
type ProgressRepository struct {
	db *database.DB
}

func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func scanProgress(row rowScanner) (*models.LessonProgress, error) {
	p := &models.LessonProgress{}
	var completedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.LessonSlug,
		&p.Attempts,
		&p.BestCorrect,
		&p.TotalQuestions,
		&completedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return p, nil
}

// RecordAttempt stores one graded submission and folds it into the lesson
// progress row: attempts grow by one, the best score is kept, and the first
// passing attempt sets completed_at.
func (r *ProgressRepository) RecordAttempt(userID int64, slug string, total, correct int, passed bool) (*models.LessonProgress, error) {
	now := time.Now().UTC()
	var progress *models.LessonProgress

	err := r.db.InTx(func(tx *database.Tx) error {
		_, err := tx.ExecReturningID(`
			INSERT INTO practice_attempts (user_id, lesson_slug, total_questions, correct_answers, passed, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, userID, slug, total, correct, passed, now)
		if err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}

		existing, err := getProgress(tx, userID, slug)
		if err != nil {
			return err
		}

		if existing == nil {
			p := &models.LessonProgress{
				UserID:         userID,
				LessonSlug:     slug,
				Attempts:       1,
				BestCorrect:    correct,
				TotalQuestions: total,
				UpdatedAt:      now,
			}
			if passed {
				p.CompletedAt = &now
			}
			p.ID, err = tx.ExecReturningID(`
				INSERT INTO lesson_progress (user_id, lesson_slug, attempts, best_correct, total_questions, completed_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, p.UserID, p.LessonSlug, p.Attempts, p.BestCorrect, p.TotalQuestions, p.CompletedAt, p.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to create progress: %w", err)
			}
			progress = p
			return nil
		}

		existing.Attempts++
		if correct > existing.BestCorrect || total != existing.TotalQuestions {
			existing.BestCorrect = correct
		}
		existing.TotalQuestions = total
		if passed && existing.CompletedAt == nil {
			existing.CompletedAt = &now
		}
		existing.UpdatedAt = now

		_, err = tx.Exec(`
			UPDATE lesson_progress
			SET attempts = ?, best_correct = ?, total_questions = ?, completed_at = ?, updated_at = ?
			WHERE id = ?
		`, existing.Attempts, existing.BestCorrect, existing.TotalQuestions, existing.CompletedAt, existing.UpdatedAt, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		progress = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// GetProgress returns nil, nil when the learner has not attempted the lesson.
func (r *ProgressRepository) GetProgress(userID int64, slug string) (*models.LessonProgress, error) {
	return getProgress(r.db, userID, slug)
}

func getProgress(db database.DBTX, userID int64, slug string) (*models.LessonProgress, error) {
	p, err := scanProgress(db.QueryRow("SELECT "+progressColumns+" FROM lesson_progress WHERE user_id = ? AND lesson_slug = ?", userID, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// ListProgress returns every lesson the learner has attempted.
func (r *ProgressRepository) ListProgress(userID int64) ([]models.LessonProgress, error) {
	return r.queryProgress("SELECT "+progressColumns+" FROM lesson_progress WHERE user_id = ? ORDER BY lesson_slug", userID)
}

// AllProgress returns every progress row, for backups.
func (r *ProgressRepository) AllProgress() ([]models.LessonProgress, error) {
	return r.queryProgress("SELECT " + progressColumns + " FROM lesson_progress ORDER BY id")
}

func (r *ProgressRepository) queryProgress(query string, args ...interface{}) ([]models.LessonProgress, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var out []models.LessonProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListAttempts returns the learner's most recent attempts on a lesson.
func (r *ProgressRepository) ListAttempts(userID int64, slug string, limit int) ([]models.PracticeAttempt, error) {
	return r.queryAttempts(`
		SELECT id, user_id, lesson_slug, total_questions, correct_answers, passed, submitted_at
		FROM practice_attempts
		WHERE user_id = ? AND lesson_slug = ?
		ORDER BY submitted_at DESC, id DESC
		LIMIT ?
	`, userID, slug, limit)
}

// AllAttempts returns every attempt, for backups.
func (r *ProgressRepository) AllAttempts() ([]models.PracticeAttempt, error) {
	return r.queryAttempts(`
		SELECT id, user_id, lesson_slug, total_questions, correct_answers, passed, submitted_at
		FROM practice_attempts
		ORDER BY id
	`)
}

func (r *ProgressRepository) queryAttempts(query string, args ...interface{}) ([]models.PracticeAttempt, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var out []models.PracticeAttempt
	for rows.Next() {
		var a models.PracticeAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.LessonSlug, &a.TotalQuestions, &a.CorrectAnswers, &a.Passed, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
