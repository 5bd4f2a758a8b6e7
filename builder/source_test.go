package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/navkit/sitemap"
)

const shopXML = `<?xml version="1.0" encoding="utf-8"?>
<siteMap>
  <node key="home" title="Home" controller="Home" action="Index" changeFrequency="daily" updatePriority="1.0">
    <node key="products" title="Products" controller="Products" action="Index" order="2">
      <node key="details" title="Details" controller="Products" action="Details"
            preservedRouteParameters="id, category" roles="members,admins" clickable="true"/>
    </node>
    <node key="about" title="About" url="~/about" order="1" metaRobotsValues="noindex nofollow"
          lastModifiedDate="2024-05-01">
      <attribute name="visibility" value="MenuHelper,!SiteMapPathHelper"/>
    </node>
    <node title="Legacy" controller="Legacy" action="Show" page="7">
      <routeValue name="lang" value="en"/>
    </node>
  </node>
</siteMap>`

func TestXMLProvider(t *testing.T) {
	sm, root, err := build(t, NewXMLProvider("shop.xml", []byte(shopXML)), URLResolvingVisitor{})
	if err != nil {
		t.Fatalf("BuildSiteMap() error = %v", err)
	}
	if root.Key() != "home" || root.ChangeFrequency() != sitemap.ChangeFrequencyDaily {
		t.Errorf("root = %q freq=%v", root.Key(), root.ChangeFrequency())
	}
	if root.UpdatePriority().String() != "1.0" {
		t.Errorf("priority = %q", root.UpdatePriority())
	}

	children := root.ChildNodes()
	// Stable sort by order: legacy (0), about (1), products (2).
	if len(children) != 3 || children[1].Key() != "about" || children[2].Key() != "products" {
		t.Fatalf("children = %v", keys(children))
	}

	about := sm.FindNodeByKey("about")
	if about.URL(context.Background()) != "/about" {
		t.Errorf("about URL = %q", about.URL(context.Background()))
	}
	if v, _ := about.Attribute("visibility"); v != "MenuHelper,!SiteMapPathHelper" {
		t.Errorf("visibility attribute = %q", v)
	}
	if about.MetaRobotsContent() != "noindex,nofollow" {
		t.Errorf("meta robots = %q", about.MetaRobotsContent())
	}
	if !about.LastModified().Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last modified = %v", about.LastModified())
	}

	details := sm.FindNodeByKey("details")
	if got := details.PreservedRouteParameters(); len(got) != 2 || got[1] != "category" {
		t.Errorf("preserved = %v", got)
	}
	if got := details.Roles(); len(got) != 2 || got[0] != "members" {
		t.Errorf("roles = %v", got)
	}

	legacy := children[0]
	if legacy.Title() != "Legacy" || len(legacy.Key()) != 36 {
		t.Errorf("legacy node = %q key %q", legacy.Title(), legacy.Key())
	}
	rv := legacy.RouteValues()
	if rv.Value("page") != "7" || rv.Value("lang") != "en" {
		t.Errorf("legacy route values = %v", rv)
	}
	if got := legacy.URL(context.Background()); got != "/Legacy/Show?lang=en&page=7" {
		t.Errorf("legacy URL = %q", got)
	}
}

func TestXMLProvider_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"malformed", `<siteMap><node`, ErrParse},
		{"bad order", `<siteMap><node title="x" order="first"/></siteMap>`, ErrParse},
		{"bad clickable", `<siteMap><node title="x" clickable="maybe"/></siteMap>`, ErrParse},
		{"missing title", `<siteMap><node key="x"/></siteMap>`, ErrInvalidDefinition},
		{"canonical conflict", `<siteMap><node title="x" canonicalKey="a" canonicalUrl="/a"/></siteMap>`, sitemap.ErrCanonicalConflict},
		{"bad robots", `<siteMap><node title="x" metaRobotsValues="sometimes"/></siteMap>`, sitemap.ErrInvalidMetaRobots},
		{"bad priority", `<siteMap><node title="x" updatePriority="2"/></siteMap>`, sitemap.ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := build(t, NewXMLProvider("bad.xml", []byte(tt.doc)), nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

const shopYAML = `
nodes:
  - key: home
    title: Home
    controller: Home
    action: Index
    children:
      - key: about
        title: About
        url: ~/about
        attributes:
          visibility: MenuHelper
      - key: admin
        title: Admin
        area: Admin
        controller: Dashboard
        action: Index
        roles: [admins]
        clickable: false
  - key: orphan-attached-by-parent-key
    parentKey: about
    title: Team
    url: /about/team
`

func TestYAMLProvider(t *testing.T) {
	sm, root, err := build(t, NewYAMLProvider("shop.yaml", []byte(shopYAML)), nil)
	if err != nil {
		t.Fatalf("BuildSiteMap() error = %v", err)
	}
	if root.Key() != "home" || sm.Len() != 4 {
		t.Fatalf("root = %q len = %d", root.Key(), sm.Len())
	}
	team := sm.FindNodeByURL("/about/team", "")
	if team == nil || team.ParentNode().Key() != "about" {
		t.Fatal("parentKey should attach team under about")
	}
	admin := sm.FindNodeByKey("admin")
	if admin.Clickable() || admin.URL(context.Background()) != "" {
		t.Error("admin should not be clickable")
	}
	if admin.Area() != "Admin" {
		t.Errorf("Area() = %q", admin.Area())
	}
}

func TestYAMLProvider_UnknownField(t *testing.T) {
	doc := "nodes:\n  - title: x\n    colour: red\n"
	if _, _, err := build(t, NewYAMLProvider("bad.yaml", []byte(doc)), nil); !errors.Is(err, ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
}

func TestFileProviders(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "nav.xml")
	yamlPath := filepath.Join(dir, "nav.yaml")
	if err := os.WriteFile(xmlPath, []byte(shopXML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(shopYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := build(t, NewXMLFileProvider(xmlPath), nil); err != nil {
		t.Errorf("XML file build error = %v", err)
	}
	if _, _, err := build(t, NewYAMLFileProvider(yamlPath), nil); err != nil {
		t.Errorf("YAML file build error = %v", err)
	}
	missing := NewXMLFileProvider(filepath.Join(dir, "missing.xml"))
	if _, _, err := build(t, missing, nil); !errors.Is(err, ErrParse) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestStaticProvider(t *testing.T) {
	clickable := false
	p := &StaticProvider{Name: "code", Nodes: []Definition{{
		Key:   "root",
		Title: "Root",
		URL:   "/",
		Children: []Definition{
			{Title: "Group", Clickable: &clickable, Children: []Definition{
				{Title: "Leaf", URL: "/leaf"},
			}},
		},
	}}}
	sm, _, err := build(t, p, nil)
	if err != nil {
		t.Fatalf("BuildSiteMap() error = %v", err)
	}
	leaf := sm.FindNodeByURL("/leaf", "")
	if leaf == nil || leaf.ParentNode().Title() != "Group" {
		t.Fatal("leaf should hang under the generated group key")
	}
}

func TestCreateNodeKey_Stable(t *testing.T) {
	h := &NodeHelper{}
	parts := NodeKeyParts{ParentKey: "home", Title: "About", URL: "~/about", Clickable: true}
	a := h.CreateNodeKey(parts)
	b := h.CreateNodeKey(parts)
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	parts.Title = "About us"
	if h.CreateNodeKey(parts) == a {
		t.Error("different parts should give a different key")
	}
	parts.Key = "explicit"
	if h.CreateNodeKey(parts) != "explicit" {
		t.Error("explicit key should be kept")
	}
}

func keys(nodes []*sitemap.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Key())
	}
	return out
}
