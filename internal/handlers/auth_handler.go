package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"nihongo/internal/lesson"
	"nihongo/internal/logger"
	"nihongo/internal/metrics"
	"nihongo/internal/models"
	"nihongo/internal/security"
	"nihongo/internal/service"
	"nihongo/internal/templates"
	"nihongo/internal/validation"
)

const maxJSONBody = 1 << 20

// AuthHandler serves the landing page, the login and register forms, the
// JSON auth API and the OAuth flow.
type AuthHandler struct {
	authService          *service.AuthService
	progressService      *service.ProgressService
	loader               lesson.Loader
	templates            *templates.Renderer
	middleware           *Middleware
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	log                  *logger.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	progressService *service.ProgressService,
	loader lesson.Loader,
	tmpl *templates.Renderer,
	middleware *Middleware,
	oauthProviders map[string]OAuthProvider,
	oauthRedirectBaseURL string,
	log *logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		progressService:      progressService,
		loader:               loader,
		templates:            tmpl,
		middleware:           middleware,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		log:                  log,
	}
}

func (h *AuthHandler) pageData(r *http.Request, title string) PageData {
	return PageData{
		Title:     title,
		User:      GetUserFromContext(r.Context()),
		CSRFToken: h.middleware.CSRFToken(r),
	}
}

func (h *AuthHandler) render(w http.ResponseWriter, status int, page string, data any) {
	if err := h.templates.Render(w, status, page, data); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering "+page+" template", err)
	}
}

// Home lists the course's lessons, with the learner's results when signed in.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.loader.List(r.Context())
	if err != nil {
		h.log.Error("failed to list lessons", "error", err)
	}

	data := LandingViewData{PageData: h.pageData(r, "")}
	if user := data.User; user != nil {
		progress, err := h.progressService.ByLesson(user.ID)
		if err != nil {
			h.log.Error("failed to load progress", "user_id", user.ID, "error", err)
		}
		for _, s := range summaries {
			card := LessonCard{Slug: s.Slug, Title: s.Title, UnitTitle: s.UnitTitle}
			if p, ok := progress[s.Slug]; ok {
				card.Completed = p.IsComplete()
				card.Attempts = p.Attempts
				card.BestPercent = p.BestPercent()
			}
			data.Lessons = append(data.Lessons, card)
		}
	} else {
		for _, s := range summaries {
			data.Lessons = append(data.Lessons, LessonCard{Slug: s.Slug, Title: s.Title, UnitTitle: s.UnitTitle})
		}
	}

	h.render(w, http.StatusOK, templates.PageLanding, data)
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if GetUserFromContext(r.Context()) != nil {
		http.Redirect(w, r, lessonPath(lesson.DefaultSlug), http.StatusSeeOther)
		return
	}
	data := AuthViewData{PageData: h.pageData(r, "Đăng nhập"), Providers: h.oauthProviderViews()}
	if r.URL.Query().Get("registered") == "1" {
		data.Flash = MsgRegisterSuccess
	}
	h.render(w, http.StatusOK, templates.PageLogin, data)
}

// Login handles the login form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	pair, _, err := h.authService.Login(email, r.PostFormValue("password"))
	metrics.AuthAttempt("login", err == nil)
	if err != nil {
		status, msg := h.authError(err)
		data := AuthViewData{
			PageData:  h.pageData(r, "Đăng nhập"),
			Providers: h.oauthProviderViews(),
			Message:   msg,
			Email:     email,
		}
		h.render(w, status, templates.PageLogin, data)
		return
	}

	setAuthCookies(w, r, pair)
	http.Redirect(w, r, lessonPath(lesson.DefaultSlug), http.StatusSeeOther)
}

func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if GetUserFromContext(r.Context()) != nil {
		http.Redirect(w, r, lessonPath(lesson.DefaultSlug), http.StatusSeeOther)
		return
	}
	data := AuthViewData{PageData: h.pageData(r, "Đăng ký"), Providers: h.oauthProviderViews()}
	h.render(w, http.StatusOK, templates.PageRegister, data)
}

// Register handles the registration form. The learner is sent to the login
// form afterwards; registration does not sign in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	name := r.PostFormValue("name")

	_, err := h.authService.Register(r.Context(), email, r.PostFormValue("password"), r.PostFormValue("confirmPassword"), name)
	metrics.AuthAttempt("register", err == nil)
	if err != nil {
		status, msg := h.authError(err)
		data := AuthViewData{
			PageData:  h.pageData(r, "Đăng ký"),
			Providers: h.oauthProviderViews(),
			Message:   msg,
			Email:     email,
			Name:      name,
		}
		h.render(w, status, templates.PageRegister, data)
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// Logout ends the refresh session and clears the auth cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			h.log.Error("logout failed", "error", err)
		}
	}
	clearAuthCookies(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// APILogin handles POST /api/v1/auth/login.
func (h *AuthHandler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSONError(h.log, w, http.StatusBadRequest, ErrInvalidFormData, nil)
		return
	}

	pair, user, err := h.authService.Login(req.Email, req.Password)
	metrics.AuthAttempt("login", err == nil)
	if err != nil {
		status, msg := h.authError(err)
		respondJSONError(h.log, w, status, msg, nil)
		return
	}

	setAuthCookies(w, r, pair)
	respondJSON(w, http.StatusOK, apiResponse{Message: MsgLoginSuccess, Data: newAuthPayload(pair, user)})
}

// APIRegister handles POST /api/v1/auth/register.
func (h *AuthHandler) APIRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSONError(h.log, w, http.StatusBadRequest, ErrInvalidFormData, nil)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword, req.Name)
	metrics.AuthAttempt("register", err == nil)
	if err != nil {
		status, msg := h.authError(err)
		respondJSONError(h.log, w, status, msg, nil)
		return
	}

	respondJSON(w, http.StatusCreated, apiResponse{Message: MsgRegisterSuccess, Data: map[string]any{"user": user}})
}

// APIRefresh rotates the refresh token from the body or the refresh cookie.
func (h *AuthHandler) APIRefresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFrom(w, r)
	if token == "" {
		respondJSONError(h.log, w, http.StatusUnauthorized, MsgSessionExpired, nil)
		return
	}

	pair, user, err := h.authService.Refresh(token)
	metrics.AuthAttempt("refresh", err == nil)
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) || errors.Is(err, service.ErrUserNotFound) {
			clearAuthCookies(w, r)
		}
		status, msg := h.authError(err)
		respondJSONError(h.log, w, status, msg, nil)
		return
	}

	setAuthCookies(w, r, pair)
	respondJSON(w, http.StatusOK, apiResponse{Message: MsgRefreshSuccess, Data: newAuthPayload(pair, user)})
}

// APILogout ends the refresh session named in the body or cookie.
func (h *AuthHandler) APILogout(w http.ResponseWriter, r *http.Request) {
	if token := h.refreshTokenFrom(w, r); token != "" {
		if err := h.authService.Logout(token); err != nil {
			respondJSONError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, err)
			return
		}
	}
	clearAuthCookies(w, r)
	respondJSON(w, http.StatusOK, apiResponse{Message: MsgLogoutSuccess})
}

// APIMe returns the signed-in user's profile.
func (h *AuthHandler) APIMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, apiResponse{Message: "OK", Data: map[string]any{"user": GetUserFromContext(r.Context())}})
}

// APIProgress returns the signed-in user's results per lesson.
func (h *AuthHandler) APIProgress(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	progress, err := h.progressService.ByLesson(user.ID)
	if err != nil {
		respondJSONError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, apiResponse{Message: "OK", Data: map[string]any{"progress": progress}})
}

func (h *AuthHandler) refreshTokenFrom(w http.ResponseWriter, r *http.Request) string {
	var req refreshRequest
	if r.ContentLength != 0 && decodeJSON(w, r, &req) == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// authError maps service errors to a status and a learner-facing message.
func (h *AuthHandler) authError(err error) (int, string) {
	var verr validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, MsgEmailTaken
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, MsgInvalidCredentials
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, security.ErrInvalidToken):
		return http.StatusUnauthorized, MsgSessionExpired
	default:
		h.log.Error("auth request failed", "error", err)
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

func newAuthPayload(pair *service.TokenPair, user *models.User) authPayload {
	return authPayload{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt.Unix(),
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt.Unix(),
		User:             user,
	}
}

// decodeJSON requires a JSON content type, which a cross-site form cannot send.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("unsupported content type %q", r.Header.Get("Content-Type"))
	}
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}

func lessonPath(slug string) string {
	return "/lessons/" + slug
}
