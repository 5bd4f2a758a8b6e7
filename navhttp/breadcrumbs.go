package navhttp

import (
	"net/http"
	"slices"

	"github.com/jonwraymond/navkit/visibility"
)

// Crumb is one entry of a breadcrumb trail.
type Crumb struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Current bool   `json:"current,omitempty"`
}

func (s *Server) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	sm, ok := s.siteMap(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	ctx := withPath(r, path)

	current := sm.CurrentNode(ctx)
	if current == nil {
		writeError(w, http.StatusNotFound, ErrNoCurrentNode.Error())
		return
	}

	trail := append(current.Ancestors(), current)
	slices.Reverse(trail[:len(trail)-1])
	meta := map[string]any{visibility.MetadataHelper: HelperBreadcrumbs}

	crumbs := make([]Crumb, 0, len(trail))
	for _, n := range trail {
		if !n.IsVisible(ctx, meta) || !n.IsAccessibleToUser(ctx) {
			continue
		}
		crumbs = append(crumbs, Crumb{
			Key:     n.Key(),
			Title:   n.Title(),
			URL:     n.URL(ctx),
			Current: n == current,
		})
	}
	writeJSON(w, http.StatusOK, crumbs)
}
