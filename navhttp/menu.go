package navhttp

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jonwraymond/navkit/sitemap"
	"github.com/jonwraymond/navkit/visibility"
)

// Helper names passed to visibility providers.
const (
	HelperMenu        = "Menu"
	HelperBreadcrumbs = "SiteMapPath"
	HelperXMLSiteMap  = "XmlSiteMap"
)

// MenuNode is the JSON form of one menu entry.
type MenuNode struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	URL           string      `json:"url,omitempty"`
	Target        string      `json:"target,omitempty"`
	ImageURL      string      `json:"imageUrl,omitempty"`
	Current       bool        `json:"current,omitempty"`
	InCurrentPath bool        `json:"inCurrentPath,omitempty"`
	Children      []*MenuNode `json:"children,omitempty"`
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	sm, ok := s.siteMap(w, r)
	if !ok {
		return
	}

	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "depth must be a non-negative integer")
			return
		}
		depth = d
	}
	if s.maxDepth > 0 && (depth == 0 || depth > s.maxDepth) {
		depth = s.maxDepth
	}

	ctx := withPath(r, r.URL.Query().Get("path"))
	root := sm.RootNode()
	if root == nil || !root.IsAccessibleToUser(ctx) {
		writeJSON(w, http.StatusOK, []*MenuNode{})
		return
	}
	b := menuBuilder{
		sm:      sm,
		ctx:     ctx,
		current: sm.CurrentNode(ctx),
		meta:    map[string]any{visibility.MetadataHelper: HelperMenu},
	}
	writeJSON(w, http.StatusOK, b.entries(root, depth))
}

type menuBuilder struct {
	sm      *sitemap.SiteMap
	ctx     context.Context
	current *sitemap.Node
	meta    map[string]any
}

// entries renders n (and its accessible children down to depth levels; 0
// is unlimited). A hidden node's children take its place unless visibility
// affects descendants.
func (b menuBuilder) entries(n *sitemap.Node, depth int) []*MenuNode {
	if !n.IsVisible(b.ctx, b.meta) {
		if b.sm.Settings().VisibilityAffectsDescendants {
			return nil
		}
		return b.children(n, depth)
	}

	m := &MenuNode{
		Key:         n.Key(),
		Title:       n.Title(),
		Description: n.Description(),
		URL:         n.URL(b.ctx),
		Target:      n.TargetFrame(),
		ImageURL:    n.ImageURL(),
		Current:     n == b.current,
	}
	if b.current != nil {
		m.InCurrentPath = n == b.current || b.current.IsDescendantOf(n)
	}
	if depth != 1 {
		next := depth
		if next > 1 {
			next--
		}
		m.Children = b.children(n, next)
	}
	return []*MenuNode{m}
}

func (b menuBuilder) children(n *sitemap.Node, depth int) []*MenuNode {
	var out []*MenuNode
	for _, c := range b.sm.ChildNodes(b.ctx, n) {
		out = append(out, b.entries(c, depth)...)
	}
	return out
}

// withPath returns r's context with the sitemap request pointed at path,
// so CurrentNode resolves the page the client is rendering rather than
// the API endpoint. An empty path keeps the request as is.
func withPath(r *http.Request, path string) context.Context {
	if path == "" {
		return r.Context()
	}
	return sitemap.WithRequest(r.Context(), sitemap.NewRequest(r.Host, path, http.MethodGet))
}
