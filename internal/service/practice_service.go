package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"nihongo/internal/logger"
	"nihongo/internal/metrics"
	"nihongo/internal/practice"
	"nihongo/internal/security"
)

// Speaker produces an audio file name for Japanese text.
type Speaker interface {
	Speak(ctx context.Context, text string) (string, error)
}

// PracticeService runs practice sessions on top of a practice.Store. Every
// mutation goes through Store.Update so two requests for the same session
// never interleave.
type PracticeService struct {
	store    practice.Store
	progress *ProgressService
	tts      Speaker
	audioURL string
	log      *logger.Logger
}

// NewPracticeService wires the store. tts may be nil; audioURL is the public
// prefix generated files are served under.
func NewPracticeService(store practice.Store, progress *ProgressService, tts Speaker, audioURL string, log *logger.Logger) *PracticeService {
	return &PracticeService{
		store:    store,
		progress: progress,
		tts:      tts,
		audioURL: audioURL,
		log:      log,
	}
}

// Start opens a session for owner on a lesson. Practice data without
// questions yields an unsaved record with an empty ID.
func (s *PracticeService) Start(ctx context.Context, owner, slug string, data practice.Data) (*practice.Record, error) {
	state := practice.NewState(data)
	if state.Empty() {
		return &practice.Record{Owner: owner, Lesson: slug, State: state}, nil
	}
	s.fillListeningAudio(ctx, &state)

	rec := &practice.Record{
		ID:     security.NewID(),
		Owner:  owner,
		Lesson: slug,
		State:  state,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create practice session: %w", err)
	}
	metrics.PracticeSessionCreated()
	return rec, nil
}

// Resume loads a session. Sessions belonging to another learner or lesson
// are reported as not found.
func (s *PracticeService) Resume(ctx context.Context, owner, slug, id string) (*practice.Record, error) {
	if !security.IsValidID(id) {
		return nil, practice.ErrSessionNotFound
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Owner != owner || rec.Lesson != slug {
		return nil, practice.ErrSessionNotFound
	}
	return rec, nil
}

// Answer records a selection. A selection for a question that is not on
// screen, or a value that is not one of its choices, leaves the session as
// it was.
func (s *PracticeService) Answer(ctx context.Context, owner, slug, id string, index int, value string) (*practice.Record, error) {
	return s.mutate(ctx, owner, slug, id, func(c *practice.Controller) error {
		err := c.SelectAnswer(index, value)
		if errors.Is(err, practice.ErrNotCurrent) || errors.Is(err, practice.ErrUnknownChoice) {
			s.log.Debug("answer ignored", "session", id, "index", index, "reason", err)
			return nil
		}
		return err
	})
}

// Navigate moves to the neighbouring question.
func (s *PracticeService) Navigate(ctx context.Context, owner, slug, id string, d practice.Direction) (*practice.Record, error) {
	return s.mutate(ctx, owner, slug, id, func(c *practice.Controller) error {
		c.Navigate(d)
		return nil
	})
}

// Submit grades the session. A graded result for a signed-in learner
// (userID > 0) is folded into their lesson progress.
func (s *PracticeService) Submit(ctx context.Context, owner, slug, id string, userID int64) (*practice.Record, practice.Result, error) {
	var result practice.Result
	rec, err := s.mutate(ctx, owner, slug, id, func(c *practice.Controller) error {
		result = c.Submit()
		return nil
	})
	if err != nil {
		return nil, practice.Result{}, err
	}
	metrics.PracticeSubmitted(result.Outcome())

	if userID > 0 && s.progress != nil {
		if _, err := s.progress.RecordSubmission(userID, slug, result); err != nil {
			// the session itself is already graded and saved
			s.log.Error("failed to record progress", "user_id", userID, "lesson", slug, "error", err)
		}
	}
	return rec, result, nil
}

func (s *PracticeService) mutate(ctx context.Context, owner, slug, id string, fn func(*practice.Controller) error) (*practice.Record, error) {
	if !security.IsValidID(id) {
		return nil, practice.ErrSessionNotFound
	}
	return s.store.Update(ctx, id, func(rec *practice.Record) error {
		if rec.Owner != owner || rec.Lesson != slug {
			return practice.ErrSessionNotFound
		}
		c := practice.Restore(rec.State)
		if err := fn(c); err != nil {
			return err
		}
		rec.State = c.State()
		return nil
	})
}

// fillListeningAudio gives listening questions without a recording a
// generated one. Failures leave the question silent.
func (s *PracticeService) fillListeningAudio(ctx context.Context, state *practice.State) {
	if s.tts == nil {
		return
	}
	for i, q := range state.Questions {
		if q.Kind != practice.Listening || q.Audio != "" {
			continue
		}
		text := q.PromptKana
		if strings.TrimSpace(text) == "" {
			text = q.Prompt
		}
		name, err := s.tts.Speak(ctx, text)
		if err != nil {
			s.log.Warn("tts failed", "question", q.Index, "error", err)
			continue
		}
		state.Questions[i].Audio = path.Join(s.audioURL, name)
	}
}
