package models

import "time"

// LessonProgress is a learner's standing on one lesson.
type LessonProgress struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userId"`
	LessonSlug     string     `json:"lessonSlug"`
	Attempts       int        `json:"attempts"`
	BestCorrect    int        `json:"bestCorrect"`
	TotalQuestions int        `json:"totalQuestions"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsComplete reports whether the lesson's practice has been passed.
func (p *LessonProgress) IsComplete() bool {
	return p.CompletedAt != nil
}

// BestPercent is the best score as a whole percentage.
func (p *LessonProgress) BestPercent() int {
	if p.TotalQuestions == 0 {
		return 0
	}
	return p.BestCorrect * 100 / p.TotalQuestions
}

// PracticeAttempt is one graded submission.
type PracticeAttempt struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	LessonSlug     string    `json:"lessonSlug"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	Passed         bool      `json:"passed"`
	SubmittedAt    time.Time `json:"submittedAt"`
}
