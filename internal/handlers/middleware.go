package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	LearnerContextKey   ContextKey = "learner"
	RequestIDContextKey ContextKey = "request_id"
)

// Learner roles, issued by the identity collaborator
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleManager = "manager"
)

// Learner is the authenticated identity extracted from the bearer token.
// Accounts live in the identity collaborator; this core only consumes the
// id and role it signed.
type Learner struct {
	ID   int64
	Role string
}

// IsStaff reports whether the learner may act on other learners' plans
func (l Learner) IsStaff() bool {
	return l.Role == RoleTeacher || l.Role == RoleManager
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authSecret []byte
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authSecret string) *Middleware {
	return &Middleware{authSecret: []byte(authSecret)}
}

// WithRequestID attaches a request ID to the context and response,
// generating one when the caller did not send X-Request-ID
func (m *Middleware) WithRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next(w, r.WithContext(ctx))
	}
}

// RequireLearner is middleware that requires a valid bearer token and adds
// the learner to the request context
func (m *Middleware) RequireLearner(next http.HandlerFunc) http.HandlerFunc {
	return m.WithRequestID(func(w http.ResponseWriter, r *http.Request) {
		learner, ok := m.learnerFromRequest(r)
		if !ok {
			respondFailure(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), LearnerContextKey, learner)
		next(w, r.WithContext(ctx))
	})
}

// RequireStaff is middleware that additionally requires a staff role
func (m *Middleware) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireLearner(func(w http.ResponseWriter, r *http.Request) {
		if !LearnerFrom(r).IsStaff() {
			respondFailure(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	})
}

// learnerFromRequest verifies the Authorization header's bearer token and
// extracts the learner identity from its claims
func (m *Middleware) learnerFromRequest(r *http.Request) (Learner, bool) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return Learner{}, false
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.authSecret, nil
	})
	if err != nil || !token.Valid {
		return Learner{}, false
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return Learner{}, false
	}
	learnerID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || learnerID <= 0 {
		return Learner{}, false
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleStudent
	}

	return Learner{ID: learnerID, Role: role}, true
}

// LearnerFrom returns the authenticated learner stored in the request
// context by RequireLearner
func LearnerFrom(r *http.Request) Learner {
	learner, _ := r.Context().Value(LearnerContextKey).(Learner)
	return learner
}

// RequestID returns the request's correlation ID, if any
func RequestID(r *http.Request) string {
	requestID, _ := r.Context().Value(RequestIDContextKey).(string)
	return requestID
}
