package navhttp

import (
	"net/http"

	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/observe"
)

// handleRelease evicts the sitemap of the request host so the next request
// rebuilds it.
func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := auth.IdentityFromContext(ctx)
	if id.IsAnonymous() {
		w.Header().Set("WWW-Authenticate", `Bearer realm="navkit"`)
		writeError(w, http.StatusUnauthorized, auth.ErrMissingCredentials.Error())
		return
	}
	if !id.HasRole(s.releaseRole) {
		writeError(w, http.StatusForbidden, auth.ErrForbidden.Error())
		return
	}

	if err := s.loader.ReleaseSiteMap(ctx, ""); err != nil {
		s.logger.Error(ctx, "sitemap release failed",
			observe.F("host", r.Host),
			observe.F("principal", id.Principal),
			observe.F("error", err),
		)
		writeError(w, http.StatusBadGateway, "release failed")
		return
	}
	s.logger.Info(ctx, "sitemap released",
		observe.F("host", r.Host),
		observe.F("principal", id.Principal),
	)
	w.WriteHeader(http.StatusNoContent)
}
