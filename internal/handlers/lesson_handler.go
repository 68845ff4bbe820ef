package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"nihongo/internal/lesson"
	"nihongo/internal/logger"
	"nihongo/internal/metrics"
	"nihongo/internal/practice"
	"nihongo/internal/render"
	"nihongo/internal/service"
	"nihongo/internal/templates"
)

// LessonHandler serves lesson pages and the practice panel actions.
type LessonHandler struct {
	practiceService *service.PracticeService
	loader          lesson.Loader
	templates       *templates.Renderer
	middleware      *Middleware
	log             *logger.Logger
}

func NewLessonHandler(practiceService *service.PracticeService, loader lesson.Loader, tmpl *templates.Renderer, middleware *Middleware, log *logger.Logger) *LessonHandler {
	return &LessonHandler{
		practiceService: practiceService,
		loader:          loader,
		templates:       tmpl,
		middleware:      middleware,
		log:             log,
	}
}

// RedirectLegacy maps /lesson?lesson=<slug> onto /lessons/<slug>.
func (h *LessonHandler) RedirectLegacy(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("lesson")
	if lesson.ValidateSlug(slug) != nil {
		slug = lesson.DefaultSlug
	}
	http.Redirect(w, r, lessonPath(slug), http.StatusFound)
}

// ShowLesson renders the lesson page. The practice session named by
// ?session= is resumed when it belongs to this learner; otherwise a new one
// starts.
func (h *LessonHandler) ShowLesson(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if err := lesson.ValidateSlug(slug); err != nil {
		h.showError(w, r, http.StatusNotFound, ErrLessonNotFound)
		return
	}

	data := LessonViewData{
		PageData: PageData{
			User:      GetUserFromContext(r.Context()),
			CSRFToken: h.middleware.CSRFToken(r),
		},
		Slug: slug,
	}

	bundle, err := h.loader.Load(r.Context(), slug)
	metrics.LessonLoaded(err == nil)
	if errors.Is(err, lesson.ErrNotFound) {
		h.showError(w, r, http.StatusNotFound, ErrLessonNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to load lesson", "lesson", slug, "error", err)
		data.Title = render.DefaultLessonTitle
		data.LoadError = err.Error()
		h.render(w, http.StatusOK, data)
		return
	}

	data.Title = bundle.Meta.Title
	data.Meta = render.Meta(bundle.Meta)
	data.Sidebar = render.Sidebar(bundle.Meta.Progress, bundle.Sidebar)
	data.Theory = render.Theory(bundle.Theory)
	data.Simulation = render.Simulation(bundle.Simulation)

	rec, err := h.openSession(r, slug, bundle)
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Error starting practice", err)
		return
	}
	data.SessionID = rec.ID

	panel, err := practice.RenderHTML(h.panel(r, slug, rec))
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering practice panel", err)
		return
	}
	data.Practice = panel

	h.render(w, http.StatusOK, data)
}

func (h *LessonHandler) openSession(r *http.Request, slug string, bundle *lesson.Bundle) (*practice.Record, error) {
	owner := GetLearner(r.Context()).ID
	if id := r.URL.Query().Get("session"); id != "" {
		rec, err := h.practiceService.Resume(r.Context(), owner, slug, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, practice.ErrSessionNotFound) {
			return nil, err
		}
	}
	return h.practiceService.Start(r.Context(), owner, slug, lesson.PracticeInput(bundle))
}

// Answer records a selection: form fields index and answer.
func (h *LessonHandler) Answer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidFormData, "", nil)
		return
	}
	slug, id := r.PathValue("slug"), r.PathValue("session")
	rec, err := h.practiceService.Answer(r.Context(), GetLearner(r.Context()).ID, slug, id, index, r.PostFormValue("answer"))
	h.respondPractice(w, r, slug, rec, err)
}

// Navigate moves one question back or forward: form field direction.
func (h *LessonHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	dir, ok := practice.ParseDirection(r.PostFormValue("direction"))
	if !ok {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidFormData, "", nil)
		return
	}
	slug, id := r.PathValue("slug"), r.PathValue("session")
	rec, err := h.practiceService.Navigate(r.Context(), GetLearner(r.Context()).ID, slug, id, dir)
	h.respondPractice(w, r, slug, rec, err)
}

// Submit grades the session.
func (h *LessonHandler) Submit(w http.ResponseWriter, r *http.Request) {
	learner := GetLearner(r.Context())
	slug, id := r.PathValue("slug"), r.PathValue("session")
	rec, _, err := h.practiceService.Submit(r.Context(), learner.ID, slug, id, learner.UserID())
	h.respondPractice(w, r, slug, rec, err)
}

// respondPractice answers htmx requests with the panel fragment and plain
// form posts with a redirect back to the lesson page.
func (h *LessonHandler) respondPractice(w http.ResponseWriter, r *http.Request, slug string, rec *practice.Record, err error) {
	if errors.Is(err, practice.ErrSessionNotFound) {
		respondWithError(h.log, w, http.StatusGone, ErrSessionGone, "", nil)
		return
	}
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Error updating practice session", err)
		return
	}

	if r.Header.Get("HX-Request") != "true" {
		target := lessonPath(slug) + "?" + url.Values{"session": {rec.ID}}.Encode()
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	var buf bytes.Buffer
	if err := practice.Render(&buf, h.panel(r, slug, rec)); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering practice panel", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *LessonHandler) panel(r *http.Request, slug string, rec *practice.Record) practice.Panel {
	return practice.Panel{
		View:      practice.BuildView(rec.State),
		Action:    practiceAction(slug, rec.ID),
		CSRFToken: h.middleware.CSRFToken(r),
	}
}

func (h *LessonHandler) render(w http.ResponseWriter, status int, data LessonViewData) {
	if err := h.templates.Render(w, status, templates.PageLesson, data); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering lesson template", err)
	}
}

func (h *LessonHandler) showError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := ErrorViewData{
		PageData: PageData{
			Title:     message,
			User:      GetUserFromContext(r.Context()),
			CSRFToken: h.middleware.CSRFToken(r),
		},
		Status:  status,
		Message: message,
	}
	if err := h.templates.Render(w, status, templates.PageError, data); err != nil {
		respondWithError(h.log, w, status, message, "Error rendering error template", err)
	}
}

func practiceAction(slug, id string) string {
	return lessonPath(slug) + "/practice/" + id
}
