package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/sitemap"
)

// Definition is the source-independent description of one node. XML, YAML
// and code sources all decode into Definitions.
type Definition struct {
	Key       string `yaml:"key"`
	ParentKey string `yaml:"parentKey"`

	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	TargetFrame string `yaml:"targetFrame"`
	ImageURL    string `yaml:"imageUrl"`
	Order       int    `yaml:"order"`

	URL        string `yaml:"url"`
	Area       string `yaml:"area"`
	Controller string `yaml:"controller"`
	Action     string `yaml:"action"`
	Route      string `yaml:"route"`
	HTTPMethod string `yaml:"httpMethod"`
	Protocol   string `yaml:"protocol"`
	HostName   string `yaml:"hostName"`

	Clickable        *bool `yaml:"clickable"`
	CacheResolvedURL *bool `yaml:"cacheResolvedUrl"`

	CanonicalKey     string   `yaml:"canonicalKey"`
	CanonicalURL     string   `yaml:"canonicalUrl"`
	MetaRobotsValues []string `yaml:"metaRobotsValues"`

	ChangeFrequency string   `yaml:"changeFrequency"`
	UpdatePriority  *float64 `yaml:"updatePriority"`
	LastModified    string   `yaml:"lastModified"`

	URLResolver        string `yaml:"urlResolver"`
	VisibilityProvider string `yaml:"visibilityProvider"`

	Roles                    []string          `yaml:"roles"`
	PreservedRouteParameters []string          `yaml:"preservedRouteParameters"`
	Attributes               map[string]string `yaml:"attributes"`
	RouteValues              map[string]string `yaml:"routeValues"`

	Children []Definition `yaml:"children"`
}

// lastModifiedLayouts are tried in order when parsing LastModified.
var lastModifiedLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseLastModified(s string) (time.Time, error) {
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: last modified %q", ErrInvalidDefinition, s)
}

// key returns the definition's key, generating one when it is empty.
func (d *Definition) key(helper *NodeHelper, parentKey string) string {
	clickable := d.Clickable == nil || *d.Clickable
	return helper.CreateNodeKey(NodeKeyParts{
		ParentKey:  parentKey,
		Key:        d.Key,
		URL:        d.URL,
		Title:      d.Title,
		Area:       d.Area,
		Controller: d.Controller,
		Action:     d.Action,
		HTTPMethod: d.HTTPMethod,
		Clickable:  clickable,
	})
}

// apply copies the definition onto n. All setter failures are reported.
func (d *Definition) apply(n *sitemap.Node) error {
	var errs []error
	set := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	set(n.SetTitle(d.Title))
	set(n.SetDescription(d.Description))
	set(n.SetTargetFrame(d.TargetFrame))
	set(n.SetImageURL(d.ImageURL))
	set(n.SetOrder(d.Order))
	set(n.SetHTTPMethod(d.HTTPMethod))

	values := routing.RouteValues{}
	for k, v := range d.RouteValues {
		values[strings.ToLower(k)] = v
	}
	if d.Area != "" {
		values[routing.KeyArea] = d.Area
	}
	if d.Controller != "" {
		values[routing.KeyController] = d.Controller
	}
	if d.Action != "" {
		values[routing.KeyAction] = d.Action
	}
	set(n.SetRouteValues(values))
	set(n.SetRoute(d.Route))
	set(n.SetPreservedRouteParameters(d.PreservedRouteParameters))
	set(n.SetURL(d.URL))
	set(n.SetProtocol(d.Protocol))
	set(n.SetHostName(d.HostName))
	set(n.SetURLResolver(d.URLResolver))
	set(n.SetVisibilityProvider(d.VisibilityProvider))
	if d.Clickable != nil {
		set(n.SetClickable(*d.Clickable))
	}
	if d.CacheResolvedURL != nil {
		set(n.SetCacheResolvedURL(*d.CacheResolvedURL))
	}

	set(n.SetCanonicalKey(d.CanonicalKey))
	set(n.SetCanonicalURL(d.CanonicalURL))
	set(n.SetMetaRobotsValues(d.MetaRobotsValues))

	if d.ChangeFrequency != "" {
		cf, err := sitemap.ParseChangeFrequency(d.ChangeFrequency)
		set(err)
		set(n.SetChangeFrequency(cf))
	}
	if d.UpdatePriority != nil {
		p, err := sitemap.PriorityFromFloat(*d.UpdatePriority)
		set(err)
		if err == nil {
			set(n.SetUpdatePriority(p))
		}
	}
	if d.LastModified != "" {
		t, err := parseLastModified(d.LastModified)
		set(err)
		set(n.SetLastModified(t))
	}

	for k, v := range d.Attributes {
		set(n.SetAttribute(k, v))
	}
	set(n.SetRoles(d.Roles))

	return errors.Join(errs...)
}

// definitionsToRelations flattens defs (and their children) into relations.
// A definition's ParentKey, when set, overrides the nesting parent.
func definitionsToRelations(ctx context.Context, helper *NodeHelper, source string, defs []Definition) ([]Relation, error) {
	var out []Relation
	var walk func(defs []Definition, parentKey string) error
	walk = func(defs []Definition, parentKey string) error {
		for i := range defs {
			if err := ctx.Err(); err != nil {
				return err
			}
			d := &defs[i]
			parent := parentKey
			if d.ParentKey != "" {
				parent = d.ParentKey
			}
			if d.Title == "" {
				return fmt.Errorf("%w: %s: node %q has no title", ErrInvalidDefinition, source, d.Key)
			}
			key := d.key(helper, parent)
			n, err := helper.CreateNode(key)
			if err != nil {
				return err
			}
			if err := d.apply(n); err != nil {
				return fmt.Errorf("%w: %s: node %q: %w", ErrInvalidDefinition, source, key, err)
			}
			out = append(out, helper.CreateRelation(n, parent, source))
			if err := walk(d.Children, key); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(defs, ""); err != nil {
		return nil, err
	}
	return out, nil
}
