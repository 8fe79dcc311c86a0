package http

import (
	"context"
	"errors"
	"net/http"

	"cashly/internal/auth"
	"cashly/internal/core"
	"cashly/internal/log"
)

type userKey struct{}

// Authenticator resolves Basic credentials to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (core.User, error)
}

func withUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// userFromContext returns the authenticated user. Handlers are only mounted
// behind requireUser, so the second result is false only on wiring bugs.
func userFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey{}).(core.User)
	return u, ok
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="cashly"`)
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := s.auth.Authenticate(r.Context(), email, password)
		if err != nil {
			logger := log.FromContext(r.Context()).WithComponent(log.ComponentAuth)
			if errors.Is(err, auth.ErrInvalidCredentials) {
				logger.WarnContext(r.Context(), "Authentication failed",
					log.NewFields().WithError(err, log.ErrorTypeAuth).ToSlice()...)
				w.Header().Set("WWW-Authenticate", `Basic realm="cashly"`)
				writeMessage(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			logger.ErrorContext(r.Context(), "Authentication error",
				log.NewFields().WithError(err, log.ErrorTypeInternal).ToSlice()...)
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := withUser(r.Context(), user)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldUserID, user.ID.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
