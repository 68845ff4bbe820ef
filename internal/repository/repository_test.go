package repository

import (
	"path/filepath"
	"testing"
	"time"

	"nihongo/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return db
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	user, err := repo.CreateUser("hana@example.com", "hash", "Hana")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byEmail, err := repo.GetUserByEmail("hana@example.com")
	if err != nil || byEmail == nil || byEmail.ID != user.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", byEmail, err)
	}

	missing, err := repo.GetUserByID(user.ID + 100)
	if err != nil || missing != nil {
		t.Errorf("GetUserByID(missing) = %+v, %v", missing, err)
	}

	if err := repo.LinkOAuthProvider(user.ID, "google", "sub-1"); err != nil {
		t.Fatalf("LinkOAuthProvider: %v", err)
	}
	if err := repo.LinkOAuthProvider(user.ID, "facebook", "sub-2"); err != ErrOAuthAlreadyLinked {
		t.Errorf("second link = %v, want ErrOAuthAlreadyLinked", err)
	}
	byOAuth, err := repo.GetUserByOAuth("google", "sub-1")
	if err != nil || byOAuth == nil || byOAuth.Email != "hana@example.com" {
		t.Errorf("GetUserByOAuth = %+v, %v", byOAuth, err)
	}

	if _, err := repo.CreateUser("hana@example.com", "x", "Dup"); err == nil {
		t.Error("duplicate email should fail")
	}
}

func TestSessions(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	user, _ := repo.CreateUser("kenji@example.com", "hash", "Kenji")

	if _, err := repo.CreateSession("live", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := repo.CreateSession("stale", user.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	removed, err := repo.DeleteExpiredSessions()
	if err != nil || removed != 1 {
		t.Errorf("DeleteExpiredSessions = %d, %v", removed, err)
	}

	s, err := repo.GetSession("live")
	if err != nil || s == nil || s.UserID != user.ID {
		t.Fatalf("GetSession = %+v, %v", s, err)
	}
	if err := repo.DeleteSession("live"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if s, _ := repo.GetSession("live"); s != nil {
		t.Error("session still present after delete")
	}
}

func TestProgressRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewProgressRepository(db)
	user, _ := users.CreateUser("mai@example.com", "hash", "Mai")

	p, err := repo.RecordAttempt(user.ID, "lesson-1", 4, 2, false)
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if p.Attempts != 1 || p.BestCorrect != 2 || p.IsComplete() {
		t.Errorf("first attempt progress = %+v", p)
	}

	p, _ = repo.RecordAttempt(user.ID, "lesson-1", 4, 4, true)
	if p.Attempts != 2 || p.BestCorrect != 4 || !p.IsComplete() {
		t.Errorf("passing attempt progress = %+v", p)
	}
	completedAt := *p.CompletedAt

	p, _ = repo.RecordAttempt(user.ID, "lesson-1", 4, 1, false)
	if p.Attempts != 3 || p.BestCorrect != 4 || !p.CompletedAt.Equal(completedAt) {
		t.Errorf("later failing attempt progress = %+v", p)
	}

	stored, err := repo.GetProgress(user.ID, "lesson-1")
	if err != nil || stored == nil || stored.Attempts != 3 {
		t.Errorf("GetProgress = %+v, %v", stored, err)
	}

	attempts, err := repo.ListAttempts(user.ID, "lesson-1", 2)
	if err != nil || len(attempts) != 2 {
		t.Fatalf("ListAttempts = %d, %v", len(attempts), err)
	}
	if attempts[0].CorrectAnswers != 1 {
		t.Errorf("latest attempt = %+v", attempts[0])
	}

	list, err := repo.ListProgress(user.ID)
	if err != nil || len(list) != 1 {
		t.Errorf("ListProgress = %v, %v", list, err)
	}
}
