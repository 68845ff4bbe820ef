package handlers

import "net/http"

// RegisterRoutes mounts the page, API and practice routes. Static files,
// generated audio and /metrics are mounted by the server.
func RegisterRoutes(mux *http.ServeMux, auth *AuthHandler, lessons *LessonHandler, mw *Middleware) {
	// Pages
	mux.HandleFunc("GET /{$}", auth.Home)
	mux.HandleFunc("GET /login", auth.ShowLogin)
	mux.HandleFunc("POST /login", mw.RateLimit(mw.CSRFProtect(auth.Login)))
	mux.HandleFunc("GET /register", auth.ShowRegister)
	mux.HandleFunc("POST /register", mw.RateLimit(mw.CSRFProtect(auth.Register)))
	mux.HandleFunc("POST /logout", mw.CSRFProtect(auth.Logout))
	mux.HandleFunc("GET /auth/{provider}/start", auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", auth.OAuthCallback)

	// JSON API
	mux.HandleFunc("POST /api/v1/auth/login", mw.RateLimit(auth.APILogin))
	mux.HandleFunc("POST /api/v1/auth/register", mw.RateLimit(auth.APIRegister))
	mux.HandleFunc("POST /api/v1/auth/refresh", mw.RateLimit(auth.APIRefresh))
	mux.HandleFunc("POST /api/v1/auth/logout", auth.APILogout)
	mux.HandleFunc("GET /api/v1/auth/me", mw.RequireAuth(auth.APIMe))
	mux.HandleFunc("GET /api/v1/progress", mw.RequireAuth(auth.APIProgress))

	// Lessons and practice
	mux.HandleFunc("GET /lesson", lessons.RedirectLegacy)
	mux.HandleFunc("GET /lessons/{slug}", lessons.ShowLesson)
	mux.HandleFunc("POST /lessons/{slug}/practice/{session}/answer", mw.CSRFProtect(lessons.Answer))
	mux.HandleFunc("POST /lessons/{slug}/practice/{session}/navigate", mw.CSRFProtect(lessons.Navigate))
	mux.HandleFunc("POST /lessons/{slug}/practice/{session}/submit", mw.CSRFProtect(lessons.Submit))
}
