package service

import (
	"fmt"

	"nihongo/internal/database"
	"nihongo/internal/models"
	"nihongo/internal/practice"
	"nihongo/internal/repository"
)

// ProgressService records graded practice submissions for signed-in learners.
type ProgressService struct {
	repo *repository.ProgressRepository
}

func NewProgressService(db *database.DB) *ProgressService {
	return &ProgressService{repo: repository.NewProgressRepository(db)}
}

// RecordSubmission stores a graded result. Ungraded submissions (a warning
// about unanswered questions) are not attempts and return nil, nil.
func (s *ProgressService) RecordSubmission(userID int64, slug string, result practice.Result) (*models.LessonProgress, error) {
	if !result.Graded || result.Total == 0 {
		return nil, nil
	}
	p, err := s.repo.RecordAttempt(userID, slug, result.Total, result.Correct, result.Passed)
	if err != nil {
		return nil, fmt.Errorf("failed to record submission for %s: %w", slug, err)
	}
	return p, nil
}

// Progress returns the learner's standing on one lesson, or nil.
func (s *ProgressService) Progress(userID int64, slug string) (*models.LessonProgress, error) {
	return s.repo.GetProgress(userID, slug)
}

// ByLesson maps lesson slug to progress for the landing page.
func (s *ProgressService) ByLesson(userID int64) (map[string]models.LessonProgress, error) {
	list, err := s.repo.ListProgress(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	out := make(map[string]models.LessonProgress, len(list))
	for _, p := range list {
		out[p.LessonSlug] = p
	}
	return out, nil
}

// RecentAttempts returns the newest attempts on a lesson first.
func (s *ProgressService) RecentAttempts(userID int64, slug string, limit int) ([]models.PracticeAttempt, error) {
	return s.repo.ListAttempts(userID, slug, limit)
}
