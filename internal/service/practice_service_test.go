package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nihongo/internal/logger"
	"nihongo/internal/practice"
)

type fakeSpeaker struct {
	calls []string
	err   error
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	return "ja_test.mp3", nil
}

func lessonData() practice.Data {
	choices := []practice.ChoiceOption{
		{Value: "a", Label: "a", Text: "あ"},
		{Value: "b", Label: "b", Text: "い"},
	}
	return practice.Data{Sections: []practice.Section{
		{Type: "multiple", Questions: []practice.RawQuestion{{Prompt: "a?", Choices: choices, Answer: "a"}}},
		{Type: "listening", Questions: []practice.RawQuestion{{Prompt: "nghe", PromptKana: "いぬ", Choices: choices, Answer: "b"}}},
	}}
}

func newPracticeService(tts Speaker) *PracticeService {
	return NewPracticeService(practice.NewMemoryStore(time.Hour), nil, tts, "/audio", logger.NewNop())
}

func TestPracticeServiceFlow(t *testing.T) {
	ctx := context.Background()
	speaker := &fakeSpeaker{}
	svc := newPracticeService(speaker)

	rec, err := svc.Start(ctx, "anon:1", "lesson-1", lessonData())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Start() did not assign an id")
	}
	if got := rec.State.Questions[1].Audio; got != "/audio/ja_test.mp3" {
		t.Errorf("listening audio = %q", got)
	}
	if len(speaker.calls) != 1 || speaker.calls[0] != "いぬ" {
		t.Errorf("speaker calls = %v", speaker.calls)
	}

	if _, err := svc.Answer(ctx, "anon:1", "lesson-1", rec.ID, 0, "a"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	// stale form for a question not on screen
	rec, err = svc.Answer(ctx, "anon:1", "lesson-1", rec.ID, 1, "b")
	if err != nil {
		t.Fatalf("Answer(stale) error = %v", err)
	}
	if _, ok := rec.State.Answers[1]; ok {
		t.Error("answer for an off-screen question was recorded")
	}

	rec, _ = svc.Navigate(ctx, "anon:1", "lesson-1", rec.ID, practice.Next)
	if rec.State.Current != 1 {
		t.Fatalf("Current = %d, want 1", rec.State.Current)
	}
	svc.Answer(ctx, "anon:1", "lesson-1", rec.ID, 1, "b")

	rec, result, err := svc.Submit(ctx, "anon:1", "lesson-1", rec.ID, 0)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !result.Passed || !rec.State.Passed || result.Correct != 2 {
		t.Errorf("result = %+v, passed = %v", result, rec.State.Passed)
	}
}

func TestPracticeServiceOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newPracticeService(nil)
	rec, _ := svc.Start(ctx, "anon:1", "lesson-1", lessonData())

	tests := []struct {
		name  string
		owner string
		slug  string
		id    string
	}{
		{"other learner", "anon:2", "lesson-1", rec.ID},
		{"other lesson", "anon:1", "lesson-2", rec.ID},
		{"unknown id", "anon:1", "lesson-1", "00000000-0000-0000-0000-000000000000"},
		{"malformed id", "anon:1", "lesson-1", "../x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Resume(ctx, tt.owner, tt.slug, tt.id); !errors.Is(err, practice.ErrSessionNotFound) {
				t.Errorf("Resume() error = %v", err)
			}
			if _, err := svc.Navigate(ctx, tt.owner, tt.slug, tt.id, practice.Next); !errors.Is(err, practice.ErrSessionNotFound) {
				t.Errorf("Navigate() error = %v", err)
			}
		})
	}

	got, err := svc.Resume(ctx, "anon:1", "lesson-1", rec.ID)
	if err != nil || got.State.Current != 0 {
		t.Errorf("Resume() = %+v, %v", got, err)
	}
}

func TestPracticeServiceEmptyAndTTSFailure(t *testing.T) {
	ctx := context.Background()
	svc := newPracticeService(&fakeSpeaker{err: errors.New("offline")})

	rec, err := svc.Start(ctx, "anon:1", "lesson-1", practice.Data{Sections: []practice.Section{}})
	if err != nil || rec.ID != "" || !rec.State.Empty() {
		t.Errorf("Start(empty) = %+v, %v", rec, err)
	}

	rec, err = svc.Start(ctx, "anon:1", "lesson-1", lessonData())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if rec.State.Questions[1].Audio != "" {
		t.Error("failed tts should leave the question without audio")
	}
}

func TestPracticeServiceRecordsProgress(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuth(t, db)
	user, err := auth.Register(context.Background(), "an@example.com", "password1", "password1", "An")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	progress := NewProgressService(db)
	svc := NewPracticeService(practice.NewMemoryStore(time.Hour), progress, nil, "/audio", logger.NewNop())
	ctx := context.Background()

	rec, _ := svc.Start(ctx, "user:1", "lesson-1", lessonData())
	svc.Answer(ctx, "user:1", "lesson-1", rec.ID, 0, "b")
	svc.Navigate(ctx, "user:1", "lesson-1", rec.ID, practice.Next)

	// incomplete submission is not an attempt
	svc.Submit(ctx, "user:1", "lesson-1", rec.ID, user.ID)
	if p, _ := progress.Progress(user.ID, "lesson-1"); p != nil {
		t.Fatalf("ungraded submission recorded progress: %+v", p)
	}

	svc.Answer(ctx, "user:1", "lesson-1", rec.ID, 1, "b")
	_, result, _ := svc.Submit(ctx, "user:1", "lesson-1", rec.ID, user.ID)
	if result.Passed || result.Correct != 1 {
		t.Fatalf("result = %+v", result)
	}

	p, err := progress.Progress(user.ID, "lesson-1")
	if err != nil || p == nil || p.Attempts != 1 || p.IsComplete() {
		t.Errorf("progress = %+v, %v", p, err)
	}

	byLesson, _ := progress.ByLesson(user.ID)
	if _, ok := byLesson["lesson-1"]; !ok {
		t.Errorf("ByLesson() = %v", byLesson)
	}
}
