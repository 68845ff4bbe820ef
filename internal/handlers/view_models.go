package handlers

import (
	"html/template"

	"nihongo/internal/models"
	"nihongo/internal/render"
)

// PageData is shared by every full page.
type PageData struct {
	Title     string
	User      *models.User
	CSRFToken string
	Flash     string
}

type LandingViewData struct {
	PageData
	Lessons []LessonCard
}

// LessonCard is one lesson on the landing page, with the learner's standing.
type LessonCard struct {
	Slug        string
	Title       string
	UnitTitle   string
	Completed   bool
	Attempts    int
	BestPercent int
}

type AuthViewData struct {
	PageData
	Providers []OAuthProviderView
	Message   string
	Email     string
	Name      string
}

type LessonViewData struct {
	PageData
	Slug       string
	SessionID  string
	LoadError  string
	Meta       render.MetaView
	Sidebar    render.SidebarView
	Theory     render.TheoryView
	Simulation render.SimulationView
	Practice   template.HTML
}

type ErrorViewData struct {
	PageData
	Status  int
	Message string
}

// authPayload is the data block of a successful login or refresh.
type authPayload struct {
	AccessToken      string       `json:"accessToken"`
	AccessExpiresAt  int64        `json:"accessExpiresAt"`
	RefreshToken     string       `json:"refreshToken"`
	RefreshExpiresAt int64        `json:"refreshExpiresAt"`
	User             *models.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
