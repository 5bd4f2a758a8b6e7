package builder

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonwraymond/navkit/sitemap"
)

// Relation pairs a node with the key of its parent. An empty ParentKey
// marks a root candidate. Relations only live for the duration of a build.
type Relation struct {
	ParentKey  string
	Node       *sitemap.Node
	SourceName string
}

// nodeKeyNamespace scopes generated node keys.
var nodeKeyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("navkit:sitemap-node"))

// NodeHelper is handed to node providers; it creates nodes owned by the
// SiteMap under construction.
type NodeHelper struct {
	sm *sitemap.SiteMap
}

// NewNodeHelper creates a helper for sm.
func NewNodeHelper(sm *sitemap.SiteMap) *NodeHelper {
	return &NodeHelper{sm: sm}
}

// SiteMap returns the map under construction.
func (h *NodeHelper) SiteMap() *sitemap.SiteMap { return h.sm }

// NodeKeyParts are the values a generated node key is derived from.
type NodeKeyParts struct {
	ParentKey  string
	Key        string
	URL        string
	Title      string
	Area       string
	Controller string
	Action     string
	HTTPMethod string
	Clickable  bool
}

// CreateNodeKey returns parts.Key when set; otherwise a name-based UUID
// derived from the remaining parts. Generated keys are stable across
// builds, so equal definitions always get equal keys.
func (h *NodeHelper) CreateNodeKey(parts NodeKeyParts) string {
	if parts.Key != "" {
		return parts.Key
	}
	name := strings.ToLower(strings.Join([]string{
		parts.ParentKey,
		parts.URL,
		parts.Title,
		parts.Area,
		parts.Controller,
		parts.Action,
		parts.HTTPMethod,
		strconv.FormatBool(parts.Clickable),
	}, "|"))
	return uuid.NewSHA1(nodeKeyNamespace, []byte(name)).String()
}

// CreateNode creates a detached node.
func (h *NodeHelper) CreateNode(key string) (*sitemap.Node, error) {
	return h.sm.NewNode(key)
}

// CreateRelation pairs node with parentKey.
func (h *NodeHelper) CreateRelation(node *sitemap.Node, parentKey, sourceName string) Relation {
	return Relation{ParentKey: parentKey, Node: node, SourceName: sourceName}
}
