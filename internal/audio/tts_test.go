package audio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *TTSService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewTTSService(filepath.Join(t.TempDir(), "audio"))
	s.endpoint = server.URL
	s.client = server.Client()
	return s
}

func TestSpeakCachesFiles(t *testing.T) {
	var calls atomic.Int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("tl"); got != "ja" {
			t.Errorf("tl = %q, want ja", got)
		}
		if got := r.URL.Query().Get("q"); got != "ねこ" {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte("ID3-fake-mp3"))
	})

	name, err := s.Speak(context.Background(), "  ねこ ")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if name != FileName("ねこ") {
		t.Errorf("Speak() = %q, want %q", name, FileName("ねこ"))
	}
	data, err := os.ReadFile(filepath.Join(s.audioDir, name))
	if err != nil || string(data) != "ID3-fake-mp3" {
		t.Errorf("cached file = %q, %v", data, err)
	}

	if _, err := s.Speak(context.Background(), "ねこ"); err != nil {
		t.Fatalf("second Speak() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("endpoint called %d times, want 1", calls.Load())
	}
}

func TestSpeakErrors(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusTooManyRequests)
	})

	if _, err := s.Speak(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Speak(blank) error = %v, want ErrEmptyText", err)
	}

	if _, err := s.Speak(context.Background(), "いぬ"); err == nil {
		t.Fatal("Speak() should fail on a non-200 response")
	}
	if _, err := os.Stat(filepath.Join(s.audioDir, FileName("いぬ"))); !os.IsNotExist(err) {
		t.Error("failed download left a file behind")
	}
}

func TestFileNameDistinguishesText(t *testing.T) {
	if FileName("あ") == FileName("い") {
		t.Error("different text produced the same file name")
	}
	if FileName("あ") != FileName(" あ\n") {
		t.Error("surrounding whitespace should not change the file name")
	}
}
