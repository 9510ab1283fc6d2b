package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func TestRequireLearner(t *testing.T) {
	m := NewMiddleware(testSecret)

	handler := m.RequireLearner(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "7", "role": "student"}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			authHeader: "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"sub": "7"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			authHeader: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"sub": "7",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-numeric subject",
			authHeader: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "alice"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing subject",
			authHeader: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "student"}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/me/plan", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireLearnerPopulatesContext(t *testing.T) {
	m := NewMiddleware(testSecret)

	var got Learner
	handler := m.RequireLearner(func(w http.ResponseWriter, r *http.Request) {
		got = LearnerFrom(r)
	})

	r := httptest.NewRequest("GET", "/api/me/plan", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "42", "role": "teacher"}))
	w := httptest.NewRecorder()

	handler(w, r)

	if got.ID != 42 {
		t.Errorf("learner ID = %d, want 42", got.ID)
	}
	if got.Role != RoleTeacher {
		t.Errorf("role = %q, want %q", got.Role, RoleTeacher)
	}
}

func TestRequireLearnerDefaultsRole(t *testing.T) {
	m := NewMiddleware(testSecret)

	var got Learner
	handler := m.RequireLearner(func(w http.ResponseWriter, r *http.Request) {
		got = LearnerFrom(r)
	})

	r := httptest.NewRequest("GET", "/api/me/plan", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "42"}))
	w := httptest.NewRecorder()

	handler(w, r)

	if got.Role != RoleStudent {
		t.Errorf("role = %q, want default %q", got.Role, RoleStudent)
	}
	if got.IsStaff() {
		t.Error("student should not be staff")
	}
}

func TestRequireStaff(t *testing.T) {
	m := NewMiddleware(testSecret)

	handler := m.RequireStaff(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		role       string
		wantStatus int
	}{
		{role: "student", wantStatus: http.StatusForbidden},
		{role: "teacher", wantStatus: http.StatusOK},
		{role: "manager", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/plans/assign", nil)
			r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "1", "role": tt.role}))
			w := httptest.NewRecorder()

			handler(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestWithRequestID(t *testing.T) {
	m := NewMiddleware(testSecret)

	t.Run("echoes caller's ID", func(t *testing.T) {
		var got string
		handler := m.WithRequestID(func(w http.ResponseWriter, r *http.Request) {
			got = RequestID(r)
		})

		r := httptest.NewRequest("GET", "/api/topics", nil)
		r.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()

		handler(w, r)

		if got != "abc-123" {
			t.Errorf("context request ID = %q, want abc-123", got)
		}
		if w.Header().Get("X-Request-ID") != "abc-123" {
			t.Errorf("response header = %q, want abc-123", w.Header().Get("X-Request-ID"))
		}
	})

	t.Run("generates one when absent", func(t *testing.T) {
		var got string
		handler := m.WithRequestID(func(w http.ResponseWriter, r *http.Request) {
			got = RequestID(r)
		})

		r := httptest.NewRequest("GET", "/api/topics", nil)
		w := httptest.NewRecorder()

		handler(w, r)

		if got == "" {
			t.Error("expected a generated request ID in context")
		}
		if w.Header().Get("X-Request-ID") != got {
			t.Errorf("response header = %q, want %q", w.Header().Get("X-Request-ID"), got)
		}
	})
}
