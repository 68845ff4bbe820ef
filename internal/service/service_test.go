package service

import (
	"path/filepath"
	"testing"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/logger"
	"nihongo/internal/security"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return db
}

func newTestAuth(t *testing.T, db *database.DB) *AuthService {
	t.Helper()
	log := logger.NewNop()
	email := &EmailService{log: log}
	return NewAuthService(db, security.NewTokenIssuer("test-secret", 15*time.Minute), email, time.Hour, log)
}
