package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
)

// fakeValidator accepts exactly one token
type fakeValidator struct {
	validToken string
	subject    string
}

func (f *fakeValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if token != f.validToken {
		return nil, errors.New("bad signature")
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: f.subject},
		CustomClaims:     &CustomClaims{Email: "site@example.com"},
	}, nil
}

func TestGetSubject(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected string
	}{
		{
			name: "returns subject when present",
			setup: func(c echo.Context) {
				ctx := context.WithValue(c.Request().Context(), SubjectKey, "auth0|12345")
				c.SetRequest(c.Request().WithContext(ctx))
			},
			expected: "auth0|12345",
		},
		{
			name:     "returns empty string when not present",
			setup:    func(c echo.Context) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			result := GetSubject(c)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Subject: "auth0|test",
			},
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetClaims(c)
		if result == nil {
			t.Fatal("Expected claims, got nil")
		}
		if result.RegisteredClaims.Subject != "auth0|test" {
			t.Errorf("Expected subject 'auth0|test', got %q", result.RegisteredClaims.Subject)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if GetClaims(c) != nil {
			t.Error("Expected nil, got claims")
		}
		if GetCustomClaims(c) != nil {
			t.Error("Expected nil, got custom claims")
		}
	})
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{Email: "test@example.com"}

	if err := claims.Validate(context.Background()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddlewareWithValidator(&fakeValidator{validToken: "good", subject: "auth0|foreman"})

	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
	}{
		{"missing token", "/api/v1/sites", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/v1/sites", "Basic good", http.StatusUnauthorized},
		{"empty bearer", "/api/v1/sites", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "/api/v1/sites", "Bearer bad", http.StatusUnauthorized},
		{"valid header", "/api/v1/sites", "Bearer good", http.StatusOK},
		{"valid query token", "/ws?channel=global&token=good", "", http.StatusOK},
		{"invalid query token", "/ws?token=bad", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var subject, email string
			handler := m.Authenticate()(func(c echo.Context) error {
				subject = GetSubject(c)
				if custom := GetCustomClaims(c); custom != nil {
					email = custom.Email
				}
				return c.String(http.StatusOK, "ok")
			})

			if err := handler(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if subject != "auth0|foreman" {
					t.Errorf("Expected subject 'auth0|foreman', got %q", subject)
				}
				if email != "site@example.com" {
					t.Errorf("Expected email 'site@example.com', got %q", email)
				}
			}
		})
	}
}

func TestAuthenticate_NilMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	var m *AuthMiddleware

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}
