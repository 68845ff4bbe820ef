package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/lesson"
	"nihongo/internal/logger"
	"nihongo/internal/practice"
	"nihongo/internal/security"
	"nihongo/internal/service"
	"nihongo/internal/templates"
)

var (
	csrfFieldPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)
	actionPattern    = regexp.MustCompile(`/lessons/lesson-1/practice/([0-9a-f-]{36})`)
)

func testLessons() fstest.MapFS {
	return fstest.MapFS{
		"lesson-1/meta.json":       {Data: []byte(`{"title":"Hiragana あ","unitTitle":"Unit 1","order":1,"progress":{"percent":0.25,"completedLessons":1,"totalLessons":4}}`)},
		"lesson-1/sidebar.json":    {Data: []byte(`{"chapters":[{"title":"Chương 1","lessons":[{"title":"あ","status":"current"}]}]}`)},
		"lesson-1/theory.json":     {Data: []byte(`{"heading":{"title":"Bảng chữ cái"},"kanaList":[{"character":"あ","romaji":"a"}]}`)},
		"lesson-1/simulation.json": {Data: []byte(`{"video":{"source":"/v.mp4","duration":"02:00","progress":"00:30"}}`)},
		"lesson-1/practice.json": {Data: []byte(`{"sections":[{"type":"multiple","questions":[
			{"prompt":"Chữ nào đọc là a?","answer":"a","choices":[{"value":"a","label":"a","text":"あ"},{"value":"b","label":"b","text":"お"}]},
			{"prompt":"Chữ nào đọc là i?","answer":"b","choices":[{"value":"a","label":"a","text":"う"},{"value":"b","label":"b","text":"い"}]}
		]}]}`)},
		"lesson-2/meta.json": {Data: []byte(`{"title":"Hiragana い","order":2}`)},
	}
}

type testApp struct {
	server *httptest.Server
	csrf   *security.CSRF
	store  *practice.MemoryStore
}

func newTestApp(t *testing.T, loginRate int) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping handler test in short mode")
	}

	log := logger.NewNop()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	email, err := service.NewEmailService(t.Context(), "", "", "", "", false, log)
	if err != nil {
		t.Fatalf("NewEmailService: %v", err)
	}
	auth := service.NewAuthService(db, security.NewTokenIssuer("test-secret", 15*time.Minute), email, time.Hour, log)
	progress := service.NewProgressService(db)
	store := practice.NewMemoryStore(time.Hour)
	practiceService := service.NewPracticeService(store, progress, nil, "/audio", log)
	loader := lesson.NewFSLoader(testLessons())

	tmpl, err := templates.Load()
	if err != nil {
		t.Fatalf("templates.Load: %v", err)
	}

	csrf := security.NewCSRF("csrf-secret")
	mw := NewMiddleware(auth, csrf, security.NewRateLimiter(loginRate, time.Minute), log)
	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewAuthHandler(auth, progress, loader, tmpl, mw, nil, "", log),
		NewLessonHandler(practiceService, loader, tmpl, mw, log),
		mw)

	server := httptest.NewServer(mw.Identify(Logging(log)(mux)))
	t.Cleanup(server.Close)
	return &testApp{server: server, csrf: csrf, store: store}
}

// client returns a browser-like client with its own cookie jar that does
// not follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (a *testApp) postForm(t *testing.T, c *http.Client, path string, form url.Values, htmx bool) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (a *testApp) postJSON(t *testing.T, path string, body any, header http.Header) (*http.Response, apiEnvelope) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp, env
}

type apiEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func csrfFrom(t *testing.T, body string) string {
	t.Helper()
	m := csrfFieldPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("page has no csrf_token field")
	}
	return m[1]
}

func sessionFrom(t *testing.T, body string) string {
	t.Helper()
	m := actionPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("page has no practice action")
	}
	return m[1]
}

func hasCookie(resp *http.Response, name string) bool {
	for _, c := range resp.Cookies() {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}
