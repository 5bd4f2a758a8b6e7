package builder

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// XML source format:
//
//	<siteMap>
//	  <node key="home" title="Home" controller="Home" action="Index">
//	    <node title="About" url="~/about" roles="*">
//	      <attribute name="visibility" value="MenuHelper,!SiteMapPathHelper"/>
//	    </node>
//	    <node title="Product" controller="Products" action="Details" id="5"/>
//	  </node>
//	</siteMap>
//
// Unrecognised node attributes become route values. List-valued attributes
// (roles, preservedRouteParameters) are comma-separated; metaRobotsValues
// is space-separated.

type xmlSiteMap struct {
	XMLName xml.Name  `xml:"siteMap"`
	Nodes   []xmlNode `xml:"node"`
}

type xmlNode struct {
	Attrs       []xml.Attr     `xml:",any,attr"`
	Attributes  []xmlNameValue `xml:"attribute"`
	RouteValues []xmlNameValue `xml:"routeValue"`
	Children    []xmlNode      `xml:"node"`
}

type xmlNameValue struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// XMLProvider reads node definitions from an XML document.
type XMLProvider struct {
	name string
	read func() ([]byte, error)
}

// NewXMLFileProvider reads the document at path on every build.
func NewXMLFileProvider(path string) *XMLProvider {
	return &XMLProvider{
		name: path,
		read: func() ([]byte, error) { return os.ReadFile(path) },
	}
}

// NewXMLProvider serves a document held in memory.
func NewXMLProvider(name string, data []byte) *XMLProvider {
	data = bytes.Clone(data)
	return &XMLProvider{
		name: name,
		read: func() ([]byte, error) { return data, nil },
	}
}

// Name returns the source name reported on relations.
func (p *XMLProvider) Name() string { return p.name }

// GetNodes implements NodeProvider.
func (p *XMLProvider) GetNodes(ctx context.Context, helper *NodeHelper) ([]Relation, error) {
	data, err := p.read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, p.name, err)
	}
	defs, err := ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return definitionsToRelations(ctx, helper, p.name, defs)
}

// ParseXML decodes an XML document into definitions.
func ParseXML(data []byte) ([]Definition, error) {
	var doc xmlSiteMap
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defs := make([]Definition, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		d, err := n.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (x xmlNode) definition() (Definition, error) {
	var d Definition
	for _, a := range x.Attrs {
		if err := d.setXMLAttr(a.Name.Local, a.Value); err != nil {
			return Definition{}, err
		}
	}
	for _, a := range x.Attributes {
		if d.Attributes == nil {
			d.Attributes = make(map[string]string)
		}
		d.Attributes[a.Name] = a.Value
	}
	for _, rv := range x.RouteValues {
		if d.RouteValues == nil {
			d.RouteValues = make(map[string]string)
		}
		d.RouteValues[rv.Name] = rv.Value
	}
	for _, c := range x.Children {
		cd, err := c.definition()
		if err != nil {
			return Definition{}, err
		}
		d.Children = append(d.Children, cd)
	}
	return d, nil
}

func (d *Definition) setXMLAttr(name, value string) error {
	switch strings.ToLower(name) {
	case "key":
		d.Key = value
	case "parentkey":
		d.ParentKey = value
	case "title":
		d.Title = value
	case "description":
		d.Description = value
	case "targetframe":
		d.TargetFrame = value
	case "imageurl":
		d.ImageURL = value
	case "order":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: order %q", ErrParse, value)
		}
		d.Order = n
	case "url":
		d.URL = value
	case "area":
		d.Area = value
	case "controller":
		d.Controller = value
	case "action":
		d.Action = value
	case "route":
		d.Route = value
	case "httpmethod":
		d.HTTPMethod = value
	case "protocol":
		d.Protocol = value
	case "hostname":
		d.HostName = value
	case "clickable":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: clickable %q", ErrParse, value)
		}
		d.Clickable = &b
	case "cacheresolvedurl":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: cacheResolvedUrl %q", ErrParse, value)
		}
		d.CacheResolvedURL = &b
	case "canonicalkey":
		d.CanonicalKey = value
	case "canonicalurl":
		d.CanonicalURL = value
	case "metarobotsvalues":
		d.MetaRobotsValues = strings.Fields(value)
	case "changefrequency":
		d.ChangeFrequency = value
	case "updatepriority":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: updatePriority %q", ErrParse, value)
		}
		d.UpdatePriority = &f
	case "lastmodifieddate", "lastmodified":
		d.LastModified = value
	case "urlresolver":
		d.URLResolver = value
	case "visibilityprovider":
		d.VisibilityProvider = value
	case "roles":
		d.Roles = splitList(value)
	case "preservedrouteparameters":
		d.PreservedRouteParameters = splitList(value)
	default:
		if d.RouteValues == nil {
			d.RouteValues = make(map[string]string)
		}
		d.RouteValues[name] = value
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var _ NodeProvider = (*XMLProvider)(nil)
