package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"nihongo/internal/lesson"
	"nihongo/internal/metrics"
	"nihongo/internal/security"
	"nihongo/internal/service"
	"nihongo/internal/templates"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthProviderCookie = "oauth_provider"
	oauthCookieTTL      = 10 * time.Minute
)

var errUnsupportedProvider = errors.New("unsupported OAuth provider")

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
	AuthParams  map[string]string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

type OAuthProviderView struct {
	Name     string
	Label    string
	URL      string
	CSSClass string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

func (h *AuthHandler) oauthProviderViews() []OAuthProviderView {
	var views []OAuthProviderView
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, OAuthProviderView{
			Name:     key,
			Label:    provider.Label,
			URL:      fmt.Sprintf("/auth/%s/start", key),
			CSSClass: "oauth-" + key,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		h.oauthError(w, r, http.StatusNotFound, ErrOAuthUnavailable, nil)
		return
	}

	state := security.NewID()
	h.setTempCookie(w, r, oauthStateCookie, state)
	h.setTempCookie(w, r, oauthProviderCookie, providerKey)

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	options := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	for key, value := range provider.AuthParams {
		options = append(options, oauth2.SetAuthURLParam(key, value))
	}

	http.Redirect(w, r, config.AuthCodeURL(state, options...), http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		h.oauthError(w, r, http.StatusNotFound, ErrOAuthUnavailable, nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		h.oauthError(w, r, http.StatusBadRequest, ErrOAuthUnavailable, errors.New("missing authorization code"))
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		h.oauthError(w, r, http.StatusBadRequest, ErrOAuthUnavailable, errors.New("invalid OAuth state"))
		return
	}
	if providerCookie, err := r.Cookie(oauthProviderCookie); err == nil && providerCookie.Value != providerKey {
		h.oauthError(w, r, http.StatusBadRequest, ErrOAuthUnavailable, errors.New("OAuth provider mismatch"))
		return
	}

	h.clearTempCookie(w, r, oauthStateCookie)
	h.clearTempCookie(w, r, oauthProviderCookie)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		h.oauthError(w, r, http.StatusBadGateway, ErrOAuthUnavailable, fmt.Errorf("exchange code: %w", err))
		return
	}

	info, err := h.fetchOAuthUserInfo(ctx, providerKey, provider, token)
	if err != nil {
		h.oauthError(w, r, http.StatusBadGateway, ErrOAuthUnavailable, err)
		return
	}

	pair, _, err := h.authService.OAuthLogin(providerKey, info.Subject, info.Email, info.Name)
	metrics.AuthAttempt("oauth", err == nil)
	if err != nil {
		msg := ErrOAuthUnavailable
		if errors.Is(err, service.ErrEmailTaken) {
			msg = MsgEmailTaken
		}
		h.oauthError(w, r, http.StatusBadRequest, msg, err)
		return
	}

	setAuthCookies(w, r, pair)
	http.Redirect(w, r, lessonPath(lesson.DefaultSlug), http.StatusSeeOther)
}

func (h *AuthHandler) fetchOAuthUserInfo(ctx context.Context, providerKey string, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	switch providerKey {
	case "google", "facebook":
	default:
		return oauthUserInfo{}, errUnsupportedProvider
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: %w", provider.Label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: status %d", provider.Label, resp.StatusCode)
	}

	// Google's v2 userinfo and the Graph API /me share these field names.
	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse %s user info: %w", provider.Label, err)
	}
	if payload.ID == "" || payload.Email == "" {
		return oauthUserInfo{}, fmt.Errorf("%s did not return an id and email", provider.Label)
	}

	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, security.CreateSessionCookie(r, name, value, time.Now().Add(oauthCookieTTL)))
}

func (h *AuthHandler) clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, security.CreateDeleteCookie(r, name))
}

// oauthError shows the login form again with a message.
func (h *AuthHandler) oauthError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		h.log.Warn("oauth flow failed", "provider", r.PathValue("provider"), "error", err)
	}
	data := AuthViewData{
		PageData:  h.pageData(r, "Đăng nhập"),
		Providers: h.oauthProviderViews(),
		Message:   message,
	}
	h.render(w, status, templates.PageLogin, data)
}
