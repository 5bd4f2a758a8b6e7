package navhttp

import (
	"context"
	"encoding/xml"
	"net/http"

	"github.com/jonwraymond/navkit/sitemap"
	"github.com/jonwraymond/navkit/urlpath"
	"github.com/jonwraymond/navkit/visibility"
)

// SiteMapNamespace is the sitemaps.org 0.9 namespace.
const SiteMapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URLSet is the sitemaps.org document.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one sitemaps.org entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

func (s *Server) handleSiteMapXML(w http.ResponseWriter, r *http.Request) {
	sm, ok := s.siteMap(w, r)
	if !ok {
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	_ = enc.Encode(BuildURLSet(r.Context(), sm, scheme))
}

// BuildURLSet lists the clickable, visible, accessible and local nodes of
// sm for the request in ctx, made absolute with scheme and the request
// host. Inaccessible nodes hide their subtrees. Nodes whose canonical
// target is another URL are left out.
func BuildURLSet(ctx context.Context, sm *sitemap.SiteMap, scheme string) URLSet {
	host := ""
	if req := sitemap.RequestFromContext(ctx); req != nil {
		host = req.Host
	}
	meta := map[string]any{visibility.MetadataHelper: HelperXMLSiteMap}

	set := URLSet{Xmlns: SiteMapNamespace}
	seen := make(map[string]bool)
	sm.Walk(func(n *sitemap.Node) bool {
		if !n.IsAccessibleToUser(ctx) {
			return false
		}
		u := n.URL(ctx)
		if u == "" || n.IsExternal(ctx) || !n.IsVisible(ctx, meta) {
			return true
		}
		if canonical := n.CanonicalTargetURL(ctx); canonical != "" && canonical != u {
			return true
		}

		loc := urlpath.MakeAbsolute(scheme, host, u)
		if seen[loc] {
			return true
		}
		seen[loc] = true

		entry := URL{
			Loc:        loc,
			ChangeFreq: n.ChangeFrequency().String(),
			Priority:   n.UpdatePriority().String(),
		}
		if lm := n.LastModified(); !lm.IsZero() {
			entry.LastMod = lm.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, entry)
		return true
	})
	return set
}
