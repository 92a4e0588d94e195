package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"linguapath/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	IdentityContextKey ContextKey = "identity"
	requestContextKey  ContextKey = "request"
)

// TokenVerifier checks bearer tokens. *security.TokenVerifier implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*security.Identity, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier TokenVerifier
	limiter  *security.RateLimiter
	logger   logrus.FieldLogger
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(verifier TokenVerifier, limiter *security.RateLimiter, logger logrus.FieldLogger) *Middleware {
	return &Middleware{
		verifier: verifier,
		limiter:  limiter,
		logger:   logger,
	}
}

// RequireAuth is middleware that requires a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			respondWithError(w, m.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		identity, err := m.verifier.Verify(r.Context(), raw)
		if err != nil {
			respondWithError(w, m.logger, http.StatusUnauthorized, ErrUnauthorized, "Rejected bearer token", err)
			return
		}

		if info, ok := r.Context().Value(requestContextKey).(*requestInfo); ok {
			info.user = identity.Subject
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per authenticated user, or per client IP when
// the request carries no identity
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}

		key := "ip:" + security.GetClientIP(r)
		if identity := GetIdentityFromContext(r.Context()); identity != nil {
			key = "user:" + identity.Subject
		}

		if !m.limiter.Allow(key) {
			respondWithError(w, m.logger, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type requestInfo struct {
	user string
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), requestContextKey, info)))

		entry := logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   recorder.status,
			"duration": time.Since(start),
		})
		if info.user != "" {
			entry = entry.WithField("user", info.user)
		}
		entry.Info("request")
	})
}

// GetIdentityFromContext retrieves the caller identity from the request context
func GetIdentityFromContext(ctx context.Context) *security.Identity {
	identity, ok := ctx.Value(IdentityContextKey).(*security.Identity)
	if !ok {
		return nil
	}
	return identity
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
