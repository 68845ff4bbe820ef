package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nihongo/internal/logger"
	"nihongo/internal/metrics"
	"nihongo/internal/models"
	"nihongo/internal/security"
	"nihongo/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const LearnerContextKey ContextKey = "learner"

const learnerCookieTTL = 365 * 24 * time.Hour

// Learner is whoever is taking the course: a signed-in user, or an
// anonymous visitor identified by a cookie.
type Learner struct {
	ID   string
	User *models.User
}

// UserID is 0 for anonymous learners.
func (l Learner) UserID() int64 {
	if l.User == nil {
		return 0
	}
	return l.User.ID
}

// GetLearner retrieves the learner from the request context
func GetLearner(ctx context.Context) Learner {
	l, _ := ctx.Value(LearnerContextKey).(Learner)
	return l
}

// GetUserFromContext retrieves the signed-in user, or nil.
func GetUserFromContext(ctx context.Context) *models.User {
	return GetLearner(ctx).User
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRF
	limiter     *security.RateLimiter
	log         *logger.Logger
}

func NewMiddleware(authService *service.AuthService, csrf *security.CSRF, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
		log:         log,
	}
}

// Identify attaches a Learner to every request. A bearer token or the
// access cookie identifies a user; an expired access cookie is renewed from
// the refresh cookie. Everyone else gets an anonymous learner cookie.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		learner := Learner{}
		if user := m.authenticate(w, r); user != nil {
			learner = Learner{ID: "user:" + strconv.FormatInt(user.ID, 10), User: user}
		} else {
			learner.ID = "anon:" + m.anonymousID(w, r)
		}
		ctx := context.WithValue(r.Context(), LearnerContextKey, learner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) *models.User {
	if token, ok := bearerToken(r); ok {
		user, err := m.authService.Authenticate(token)
		if err != nil {
			return nil
		}
		return user
	}

	if cookie, err := r.Cookie(AccessCookieName); err == nil && cookie.Value != "" {
		if user, err := m.authService.Authenticate(cookie.Value); err == nil {
			return user
		}
	}

	refresh, err := r.Cookie(RefreshCookieName)
	if err != nil || refresh.Value == "" {
		return nil
	}
	pair, user, err := m.authService.Refresh(refresh.Value)
	if err != nil {
		m.log.Debug("refresh from cookie failed", "error", err)
		// A token already rotated by another request leaves the cookies alone.
		if errors.Is(err, service.ErrSessionExpired) || errors.Is(err, service.ErrUserNotFound) {
			clearAuthCookies(w, r)
		}
		return nil
	}
	setAuthCookies(w, r, pair)
	return user
}

func (m *Middleware) anonymousID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(LearnerCookieName); err == nil && security.IsValidID(cookie.Value) {
		return cookie.Value
	}
	id := security.NewID()
	http.SetCookie(w, security.CreateSessionCookie(r, LearnerCookieName, id, time.Now().Add(learnerCookieTTL)))
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireAuth is middleware that requires a signed-in user. API routes get
// a JSON 401, pages are redirected to the login form.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				respondJSONError(m.log, w, http.StatusUnauthorized, ErrUnauthorized, nil)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// CSRFProtect checks the csrf_token form field (or X-CSRF-Token header)
// against the current learner.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.PostFormValue("csrf_token")
		}
		if !m.csrf.Valid(GetLearner(r.Context()).ID, token) {
			m.log.Warn("csrf check failed", "path", r.URL.Path, "ip", security.GetClientIP(r))
			respondWithError(m.log, w, http.StatusForbidden, ErrInvalidCSRF, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client IP.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.log.Warn("rate limited", "path", r.URL.Path, "ip", ip)
			w.Header().Set("Retry-After", "60")
			if strings.HasPrefix(r.URL.Path, "/api/") {
				respondJSONError(m.log, w, http.StatusTooManyRequests, ErrTooManyRequests, nil)
				return
			}
			respondWithError(m.log, w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// CSRFToken returns the form token for the current learner.
func (m *Middleware) CSRFToken(r *http.Request) string {
	return m.csrf.Token(GetLearner(r.Context()).ID)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logging logs every request and records it in the HTTP metrics. It must
// wrap the mux directly so the matched route pattern is visible afterwards.
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			metrics.ObserveRequest(r.Pattern, r.Method, rec.status, elapsed)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", r.Pattern,
				"status", rec.status,
				"duration", elapsed)
		})
	}
}

func setAuthCookies(w http.ResponseWriter, r *http.Request, pair *service.TokenPair) {
	http.SetCookie(w, security.CreateSessionCookie(r, AccessCookieName, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(w, security.CreateSessionCookie(r, RefreshCookieName, pair.RefreshToken, pair.RefreshExpiresAt))
}

func clearAuthCookies(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, AccessCookieName))
	http.SetCookie(w, security.CreateDeleteCookie(r, RefreshCookieName))
}
