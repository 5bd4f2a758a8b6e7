package navhttp

import (
	"encoding/json"
	"net/http"

	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/health"
	"github.com/jonwraymond/navkit/loader"
	"github.com/jonwraymond/navkit/observe"
	"github.com/jonwraymond/navkit/sitemap"
)

// DefaultReleaseRole is the role allowed to release sitemaps.
const DefaultReleaseRole = "operator"

// Config configures a Server.
type Config struct {
	// Loader provides sitemaps keyed by request host. Required.
	Loader loader.SiteMapLoader

	// Authenticator identifies callers. Nil serves everyone as anonymous.
	Authenticator auth.Authenticator

	// Health mounts /healthz, /readyz and /health when set.
	Health *health.Aggregator

	// Logger receives request errors. Default: no-op.
	Logger observe.Logger

	// ReleaseRole is required to POST /nav/release.
	// Default: DefaultReleaseRole
	ReleaseRole string

	// MaxMenuDepth caps the depth query parameter. Zero means unlimited.
	MaxMenuDepth int
}

// Server is the navigation HTTP surface.
type Server struct {
	loader      loader.SiteMapLoader
	authn       auth.Authenticator
	health      *health.Aggregator
	logger      observe.Logger
	releaseRole string
	maxDepth    int
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Loader == nil {
		return nil, ErrNilLoader
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.ReleaseRole == "" {
		cfg.ReleaseRole = DefaultReleaseRole
	}
	return &Server{
		loader:      cfg.Loader,
		authn:       cfg.Authenticator,
		health:      cfg.Health,
		logger:      cfg.Logger,
		releaseRole: cfg.ReleaseRole,
		maxDepth:    cfg.MaxMenuDepth,
	}, nil
}

// Handler returns the routed handler with request context and
// authentication applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /nav/menu", s.handleMenu)
	mux.HandleFunc("GET /nav/breadcrumbs", s.handleBreadcrumbs)
	mux.HandleFunc("GET /sitemap.xml", s.handleSiteMapXML)
	mux.HandleFunc("POST /nav/release", s.handleRelease)
	if s.health != nil {
		health.RegisterHandlers(mux, s.health)
	}

	authn := auth.Middleware(s.authn, auth.WithMiddlewareLogger(s.logger))
	return RequestContext(authn(mux))
}

// RequestContext attaches a sitemap.Request built from r to the context.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := sitemap.NewRequest(r.Host, r.URL.RequestURI(), r.Method)
		next.ServeHTTP(w, r.WithContext(sitemap.WithRequest(r.Context(), req)))
	})
}

// siteMap loads the sitemap for the request host, answering 500 on failure.
func (s *Server) siteMap(w http.ResponseWriter, r *http.Request) (*sitemap.SiteMap, bool) {
	sm, err := s.loader.GetSiteMap(r.Context(), "")
	if err != nil {
		s.logger.Error(r.Context(), "sitemap unavailable",
			observe.F("host", r.Host),
			observe.F("error", err),
		)
		writeError(w, http.StatusInternalServerError, "sitemap unavailable")
		return nil, false
	}
	return sm, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
