package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEndpoint   = "https://translate.google.com/translate_tts"
	ttsRequestTimeout = 10 * time.Second
	maxAudioBytes     = 2 << 20
)

var ErrEmptyText = errors.New("nothing to speak")

// TTSService turns Japanese prompts into cached MP3 files for listening
// questions that ship without a recording.
type TTSService struct {
	audioDir string
	endpoint string
	client   *http.Client
}

func NewTTSService(audioDir string) *TTSService {
	return &TTSService{
		audioDir: audioDir,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: ttsRequestTimeout},
	}
}

// FileName is the cache name for text. Equal text always maps to the same file.
func FileName(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return "ja_" + hex.EncodeToString(sum[:8]) + ".mp3"
}

// Speak returns the file name holding text as speech, generating it on first use.
func (s *TTSService) Speak(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	filename := FileName(text)
	target := filepath.Join(s.audioDir, filename)
	if _, err := os.Stat(target); err == nil {
		return filename, nil
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	if err := s.fetch(ctx, text, target); err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}
	return filename, nil
}

func (s *TTSService) fetch(ctx context.Context, text, target string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", "ja")
	params.Set("client", "tw-ob")
	params.Set("textlen", strconv.Itoa(len([]rune(text))))

	ctx, cancel := context.WithTimeout(ctx, ttsRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Write to a temp file first so a half-written download is never served.
	tmp, err := os.CreateTemp(s.audioDir, "tts-*.part")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, maxAudioBytes)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
