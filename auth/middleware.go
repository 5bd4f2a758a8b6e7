package auth

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/navkit/observe"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	required bool
	logger   observe.Logger
}

// RequireAuthentication rejects requests that fail authentication with 401
// instead of continuing as anonymous.
func RequireAuthentication() MiddlewareOption {
	return func(c *middlewareConfig) { c.required = true }
}

// WithMiddlewareLogger sets the logger used for authentication failures.
func WithMiddlewareLogger(l observe.Logger) MiddlewareOption {
	return func(c *middlewareConfig) { c.logger = l }
}

// Middleware authenticates each request and stores the resulting Identity
// in the request context. Requests without usable credentials continue with
// AnonymousIdentity unless RequireAuthentication is set.
func Middleware(authn Authenticator, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := NewAuthRequest(r)

			identity := AnonymousIdentity()
			var failure error = ErrMissingCredentials
			if authn != nil && authn.Supports(ctx, req) {
				result, err := authn.Authenticate(ctx, req)
				switch {
				case err != nil:
					cfg.logger.Error(ctx, "authentication error", observe.F("authenticator", authn.Name()), observe.F("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				case result.Authenticated:
					identity, failure = result.Identity, nil
				default:
					failure = result.Error
					cfg.logger.Debug(ctx, "authentication failed", observe.F("method", result.Method), observe.F("error", result.Error))
				}
			}

			if failure != nil && cfg.required {
				status := http.StatusUnauthorized
				if errors.Is(failure, ErrForbidden) {
					status = http.StatusForbidden
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="navkit"`)
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}
