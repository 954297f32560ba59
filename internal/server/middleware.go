package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"contratos/internal"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const (
	contextKeyUserID    contextKey = "user_id"
	contextKeyEmail     contextKey = "email"
	contextKeyRequestID contextKey = "request_id"
)

var errUnauthenticated = errors.New("unauthenticated")

type identity struct {
	UserID string
	Email  string
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestID reuses the caller's X-Request-ID or mints a new one.
func (s *Service) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(internal.HEADER_REQUEST_ID))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(internal.HEADER_REQUEST_ID, requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
			"request_id":  requestIDFromContext(r.Context()),
		}).Info("http request")
	})
}

// accessToken reads the token from the encrypted cookie, falling back to a
// bearer Authorization header for API clients.
func (s *Service) accessToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME); err == nil {
		var token string
		if err := s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &token); err != nil {
			return "", err
		}
		return token, nil
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}

	return "", errUnauthenticated
}

// verifyJWKS validates the token against the user pool's key set.
func (s *Service) verifyJWKS(ctx context.Context, accessToken string) (identity, error) {
	set, err := s.jwksCache.Lookup(ctx, s.jwksURL)
	if err != nil {
		return identity{}, err
	}

	token, err := jwt.Parse(
		[]byte(accessToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return identity{}, err
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return identity{}, errors.New("no user ID in JWT subject claim")
	}

	// email is optional, access tokens usually carry only the username
	var email string
	_ = token.Get("email", &email)

	return identity{UserID: userID, Email: email}, nil
}

// RequireAuth rejects the request with 401 unless it carries a valid access
// token, and adds the caller to the context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := s.logger.WithField("request_id", requestIDFromContext(r.Context()))

		accessToken, err := s.accessToken(r)
		if err != nil {
			entry.WithError(err).Debug("no usable access token")
			if r.Method == http.MethodGet {
				s.setRedirectCookie(w, r.URL.Path, time.Minute*5)
			}
			s.writeError(w, r, errUnauthenticated)
			return
		}

		id, err := s.verifyToken(r.Context(), accessToken)
		if err != nil {
			entry.WithError(err).Warn("failed to verify access token")
			s.writeError(w, r, errUnauthenticated)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyUserID, id.UserID)
		if id.Email != "" {
			ctx = context.WithValue(ctx, contextKeyEmail, id.Email)
		}

		entry.WithFields(logrus.Fields{
			"user_id": id.UserID,
			"email":   id.Email,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			// 308 keeps the method and body of API calls
			http.Redirect(w, r, newURL.String(), http.StatusPermanentRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}
