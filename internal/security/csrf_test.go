package security

import "testing"

func TestCSRF(t *testing.T) {
	c := NewCSRF("secret")

	token := c.Token("anon:1234")
	if token == "" {
		t.Fatal("Token() returned empty string")
	}
	if token != c.Token("anon:1234") {
		t.Error("Token() is not stable for the same learner")
	}

	tests := []struct {
		name    string
		csrf    *CSRF
		learner string
		token   string
		want    bool
	}{
		{"matching learner", c, "anon:1234", token, true},
		{"other learner", c, "user:7", token, false},
		{"empty token", c, "anon:1234", "", false},
		{"empty learner", c, "", token, false},
		{"other secret", NewCSRF("rotated"), "anon:1234", token, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.csrf.Valid(tt.learner, tt.token); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCSRFEmptyLearner(t *testing.T) {
	if got := NewCSRF("secret").Token(""); got != "" {
		t.Errorf("Token(\"\") = %q, want empty", got)
	}
}
