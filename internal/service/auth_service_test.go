package service

import (
	"context"
	"errors"
	"testing"

	"nihongo/internal/validation"
)

func TestRegister(t *testing.T) {
	auth := newTestAuth(t, newTestDB(t))
	ctx := context.Background()

	user, err := auth.Register(ctx, " Hana@Example.com ", "sakura-2024", "sakura-2024", "Hana")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "hana@example.com" || user.PasswordHash == "" {
		t.Errorf("user = %+v", user)
	}

	tests := []struct {
		name      string
		email     string
		password  string
		confirm   string
		userName  string
		wantField string
		wantErr   error
	}{
		{"duplicate email", "hana@example.com", "sakura-2024", "sakura-2024", "Hana", "", ErrEmailTaken},
		{"mismatched confirmation", "kenji@example.com", "sakura-2024", "sakura-2025", "Kenji", "confirmPassword", nil},
		{"short password", "kenji@example.com", "short", "short", "Kenji", "password", nil},
		{"bad email", "kenji", "sakura-2024", "sakura-2024", "Kenji", "email", nil},
		{"short name", "kenji@example.com", "sakura-2024", "sakura-2024", "K", "name", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.email, tt.password, tt.confirm, tt.userName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var verr validation.Error
			if !errors.As(err, &verr) || verr.Field != tt.wantField {
				t.Errorf("Register() error = %v, want validation error on %s", err, tt.wantField)
			}
		})
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	auth := newTestAuth(t, newTestDB(t))
	if _, err := auth.Register(context.Background(), "mai@example.com", "konnichiwa", "konnichiwa", "Mai"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, _, err := auth.Login("mai@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong) error = %v", err)
	}
	if _, _, err := auth.Login("nobody@example.com", "konnichiwa"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown) error = %v", err)
	}

	pair, user, err := auth.Login("MAI@example.com", "konnichiwa")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	me, err := auth.Authenticate(pair.AccessToken)
	if err != nil || me.ID != user.ID {
		t.Fatalf("Authenticate() = %+v, %v", me, err)
	}

	rotated, _, err := auth.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if _, _, err := auth.Refresh(pair.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("reusing a rotated token: error = %v", err)
	}

	if err := auth.Logout(rotated.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := auth.Refresh(rotated.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("refresh after logout: error = %v", err)
	}
}

func TestRefreshExpired(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuth(t, db)
	auth.sessionDuration = -1

	if _, err := auth.Register(context.Background(), "yuki@example.com", "yukiguni!", "yukiguni!", "Yuki"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	pair, _, err := auth.Login("yuki@example.com", "yukiguni!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, _, err := auth.Refresh(pair.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Refresh() error = %v, want ErrSessionExpired", err)
	}
	if s, _ := auth.users.GetSession(pair.RefreshToken); s != nil {
		t.Error("expired session was not removed")
	}
}

func TestOAuthLogin(t *testing.T) {
	auth := newTestAuth(t, newTestDB(t))
	ctx := context.Background()

	existing, err := auth.Register(ctx, "linh@example.com", "password1", "password1", "Linh")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, linked, err := auth.OAuthLogin("google", "g-1", "linh@example.com", "Linh G")
	if err != nil {
		t.Fatalf("OAuthLogin(link) error = %v", err)
	}
	if linked.ID != existing.ID {
		t.Errorf("linked user = %d, want %d", linked.ID, existing.ID)
	}

	if _, _, err := auth.OAuthLogin("facebook", "f-1", "linh@example.com", "Linh F"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("OAuthLogin(other provider) error = %v, want ErrEmailTaken", err)
	}

	_, created, err := auth.OAuthLogin("facebook", "f-2", "taro@example.com", "")
	if err != nil {
		t.Fatalf("OAuthLogin(new) error = %v", err)
	}
	if created.Name != "taro" || created.PasswordHash != "" {
		t.Errorf("created user = %+v", created)
	}
	if _, _, err := auth.Login("taro@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("password login on an oauth account: error = %v", err)
	}

	if _, _, err := auth.OAuthLogin("google", "", "x@example.com", "X"); !errors.Is(err, ErrOAuthIdentity) {
		t.Errorf("OAuthLogin(missing subject) error = %v", err)
	}
}
