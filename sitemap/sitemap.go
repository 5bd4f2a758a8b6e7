package sitemap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/urlpath"
)

// Settings are the per-SiteMap behavior switches.
type Settings struct {
	// SecurityTrimmingEnabled hides nodes the ACL module rejects.
	SecurityTrimmingEnabled bool

	// VisibilityAffectsDescendants hides a node whose ancestor is hidden.
	VisibilityAffectsDescendants bool

	// UseTitleIfDescriptionNotProvided makes Description fall back to Title.
	UseTitleIfDescriptionNotProvided bool

	// AppRoot is the virtual application root used to resolve "~/" URLs.
	AppRoot string
}

// Config wires a SiteMap to its collaborators.
type Config struct {
	// Builder populates the map. Required.
	Builder Builder

	// Router matches request paths and generates node URLs.
	Router routing.Router

	// URLResolvers resolves node URLs. Defaults to a RouteURLResolver over Router.
	URLResolvers *URLResolverStrategy

	// Visibility decides node visibility. Nil means every node is visible.
	Visibility *VisibilityStrategy

	// ACL decides node accessibility when security trimming is enabled.
	ACL ACLModule

	Settings Settings

	// CacheKey identifies the map in the loader's cache.
	CacheKey string
}

// SiteMap is the aggregate that owns every Node of one navigation tree.
//
// Contract:
// - Ownership: a single goroutine (the builder) mutates the map until
//   BuildSiteMap returns; afterwards the map is read-only.
// - Concurrency: read-only maps are safe for concurrent use.
// - Errors: mutators return ErrReadOnly after the build.
type SiteMap struct {
	builder    Builder
	router     routing.Router
	resolvers  *URLResolverStrategy
	visibility *VisibilityStrategy
	acl        ACLModule
	settings   Settings
	cacheKey   string
	keys       urlpath.Resolver

	nodes      []*Node
	keyIndex   map[string]int
	urlIndex   map[urlpath.Key]int
	urlOf      map[int]urlpath.Key
	childrenOf map[int][]int
	parentOf   map[int]int
	root       int

	readOnly atomic.Bool

	buildMu  sync.Mutex
	built    bool
	buildErr error
}

// New creates an empty, writable SiteMap.
func New(cfg Config) (*SiteMap, error) {
	if cfg.Builder == nil {
		return nil, ErrNoBuilder
	}
	resolvers := cfg.URLResolvers
	if resolvers == nil {
		resolvers = NewURLResolverStrategy(&RouteURLResolver{Router: cfg.Router})
	}
	sm := &SiteMap{
		builder:    cfg.Builder,
		router:     cfg.Router,
		resolvers:  resolvers,
		visibility: cfg.Visibility,
		acl:        cfg.ACL,
		settings:   cfg.Settings,
		cacheKey:   cfg.CacheKey,
		keys:       urlpath.Resolver{AppRoot: cfg.Settings.AppRoot},
	}
	sm.reset()
	return sm, nil
}

func (sm *SiteMap) reset() {
	for _, n := range sm.nodes {
		if n != nil {
			n.idx = -1
		}
	}
	sm.nodes = nil
	sm.keyIndex = make(map[string]int)
	sm.urlIndex = make(map[urlpath.Key]int)
	sm.urlOf = make(map[int]urlpath.Key)
	sm.childrenOf = make(map[int][]int)
	sm.parentOf = make(map[int]int)
	sm.root = -1
}

// CacheKey returns the key the map is cached under.
func (sm *SiteMap) CacheKey() string { return sm.cacheKey }

// Settings returns the map's settings.
func (sm *SiteMap) Settings() Settings { return sm.settings }

// Router returns the configured router, which may be nil.
func (sm *SiteMap) Router() routing.Router { return sm.router }

// IsReadOnly reports whether the map has been built.
func (sm *SiteMap) IsReadOnly() bool { return sm.readOnly.Load() }

// Len returns the number of attached nodes.
func (sm *SiteMap) Len() int { return len(sm.keyIndex) }

// NewNode creates a detached node owned by this map. The node is not
// reachable until it is passed to AddNode.
func (sm *SiteMap) NewNode(key string) (*Node, error) {
	if sm.IsReadOnly() {
		return nil, ErrReadOnly
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	return newNode(sm, key), nil
}

// AddNode attaches node under parent. A nil parent makes node the root.
//
// AddNode fails with ErrReadOnly, *DuplicateKeyError, *DuplicateURLError or
// *MultipleRootsError; on failure the map is unchanged.
func (sm *SiteMap) AddNode(node, parent *Node) error {
	if sm.IsReadOnly() {
		return ErrReadOnly
	}
	if node == nil {
		return ErrNilNode
	}
	if node.sm != sm {
		return ErrForeignNode
	}
	if node.idx >= 0 {
		return &DuplicateKeyError{Key: node.key}
	}
	if _, exists := sm.keyIndex[node.key]; exists {
		return &DuplicateKeyError{Key: node.key}
	}
	if parent != nil {
		if parent.sm != sm || parent.idx < 0 {
			return fmt.Errorf("%w: %q", ErrParentNotFound, parent.key)
		}
	} else if sm.root >= 0 {
		return &MultipleRootsError{Keys: []string{sm.nodes[sm.root].key, node.key}}
	}

	urlKey, hasURL := sm.urlKeyOf(node)
	if hasURL {
		if existing, taken := sm.urlIndex[urlKey]; taken {
			return &DuplicateURLError{URL: urlKey, Key: node.key, ExistingKey: sm.nodes[existing].key}
		}
	}

	idx := len(sm.nodes)
	sm.nodes = append(sm.nodes, node)
	node.idx = idx
	sm.keyIndex[node.key] = idx
	if hasURL {
		sm.urlIndex[urlKey] = idx
		sm.urlOf[idx] = urlKey
	}
	if parent != nil {
		sm.parentOf[idx] = parent.idx
		sm.childrenOf[parent.idx] = append(sm.childrenOf[parent.idx], idx)
	} else {
		sm.root = idx
	}
	return nil
}

// RemoveNode detaches node from every index. Only node itself is removed;
// its children stay in the map without a parent.
func (sm *SiteMap) RemoveNode(node *Node) error {
	if sm.IsReadOnly() {
		return ErrReadOnly
	}
	if node == nil {
		return ErrNilNode
	}
	if node.sm != sm || node.idx < 0 {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, node.key)
	}
	idx := node.idx

	delete(sm.keyIndex, node.key)
	if k, ok := sm.urlOf[idx]; ok {
		delete(sm.urlIndex, k)
		delete(sm.urlOf, idx)
	}
	if p, ok := sm.parentOf[idx]; ok {
		sm.childrenOf[p] = removeIndex(sm.childrenOf[p], idx)
		delete(sm.parentOf, idx)
	}
	for _, c := range sm.childrenOf[idx] {
		delete(sm.parentOf, c)
	}
	delete(sm.childrenOf, idx)
	if sm.root == idx {
		sm.root = -1
	}
	sm.nodes[idx] = nil
	node.idx = -1
	return nil
}

// Clear detaches every node. It is used to discard a map whose build failed.
func (sm *SiteMap) Clear() error {
	if sm.IsReadOnly() {
		return ErrReadOnly
	}
	sm.reset()
	return nil
}

// BuildSiteMap runs the builder once and makes the map read-only. Later
// calls return the memoized result.
func (sm *SiteMap) BuildSiteMap(ctx context.Context) (*Node, error) {
	sm.buildMu.Lock()
	defer sm.buildMu.Unlock()

	if sm.built {
		if sm.buildErr != nil {
			return nil, sm.buildErr
		}
		return sm.RootNode(), nil
	}
	sm.built = true

	root, err := sm.builder.BuildSiteMap(ctx, sm, "")
	if err == nil && root == nil {
		err = &NoRootError{}
	}
	if err == nil && (root.sm != sm || root.idx < 0 || root.idx != sm.root) {
		err = fmt.Errorf("%w: builder returned detached root %q", ErrNoRoot, root.key)
	}
	if err != nil {
		sm.buildErr = err
		return nil, err
	}
	sm.readOnly.Store(true)
	return root, nil
}

// RootNode returns the root, or nil before one is attached.
func (sm *SiteMap) RootNode() *Node {
	if sm.root < 0 {
		return nil
	}
	return sm.nodes[sm.root]
}

// FindNodeByKey returns the node with key, or nil.
func (sm *SiteMap) FindNodeByKey(key string) *Node {
	if idx, ok := sm.keyIndex[key]; ok {
		return sm.nodes[idx]
	}
	return nil
}

// FindNodeByURL returns the node registered for urlOrPath on host, or nil.
//
// Lookup order: path with query on host, path with query on any host, path
// without query on host, path without query on any host.
func (sm *SiteMap) FindNodeByURL(urlOrPath, host string) *Node {
	key := sm.keys.MakeKey(urlOrPath, host)
	bare := key.WithoutQuery()
	for _, k := range [...]urlpath.Key{key, key.WithoutHost(), bare, bare.WithoutHost()} {
		if idx, ok := sm.urlIndex[k]; ok {
			return sm.nodes[idx]
		}
	}
	return nil
}

// FindNodeFromRoute returns the first node whose route values match rd.
// Nodes bound to rd's route name are preferred over unbound nodes.
func (sm *SiteMap) FindNodeFromRoute(ctx context.Context, rd *routing.RouteData) *Node {
	if rd == nil {
		return nil
	}
	if rd.RouteName != "" {
		for _, n := range sm.nodes {
			if n != nil && n.route != "" && strings.EqualFold(n.route, rd.RouteName) && n.MatchesRoute(ctx, rd) {
				return n
			}
		}
	}
	for _, n := range sm.nodes {
		if n != nil && n.route == "" && n.MatchesRoute(ctx, rd) {
			return n
		}
	}
	return nil
}

// CurrentNode returns the node for the request attached to ctx. It tries
// the URL index first and falls back to route matching. A node the current
// user cannot access is reported as nil. The result is memoized on the
// request.
func (sm *SiteMap) CurrentNode(ctx context.Context) *Node {
	req := RequestFromContext(ctx)
	if req == nil {
		return nil
	}
	if n, ok := req.cachedCurrent(sm); ok {
		return n
	}
	n := sm.FindNodeByURL(req.URL, req.Host)
	if n == nil {
		if rd := req.matchedRoute(sm.router); rd != nil {
			n = sm.FindNodeFromRoute(ctx, rd)
		}
	}
	if n != nil && !n.IsAccessibleToUser(ctx) {
		n = nil
	}
	req.storeCurrent(sm, n)
	return n
}

// Nodes returns the attached nodes in insertion order.
func (sm *SiteMap) Nodes() []*Node {
	out := make([]*Node, 0, len(sm.keyIndex))
	for _, n := range sm.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits the tree depth-first from the root, parents before children.
// Returning false from fn skips the node's subtree.
func (sm *SiteMap) Walk(fn func(*Node) bool) {
	if sm.root < 0 {
		return
	}
	sm.walk(sm.root, fn)
}

func (sm *SiteMap) walk(idx int, fn func(*Node) bool) {
	if !fn(sm.nodes[idx]) {
		return
	}
	for _, c := range sm.childrenOf[idx] {
		sm.walk(c, fn)
	}
}

func (sm *SiteMap) resolveURL(ctx context.Context, n *Node) string {
	return sm.resolvers.ResolveURL(ctx, n.urlResolver, n, n.Area(), n.Controller(), n.Action(), n.routeValues)
}

// urlKeyOf computes the index key of n from its live state.
func (sm *SiteMap) urlKeyOf(n *Node) (urlpath.Key, bool) {
	u := n.URL(context.Background())
	if u == "" {
		return urlpath.Key{}, false
	}
	return sm.keys.MakeKey(u, n.hostName), true
}

// reindexURL moves an attached node to its current URL key.
func (sm *SiteMap) reindexURL(n *Node) error {
	if n.idx < 0 {
		return nil
	}
	newKey, hasURL := sm.urlKeyOf(n)
	oldKey, hadURL := sm.urlOf[n.idx]
	if hadURL && hasURL && oldKey == newKey {
		return nil
	}
	if hasURL {
		if existing, taken := sm.urlIndex[newKey]; taken && existing != n.idx {
			return &DuplicateURLError{URL: newKey, Key: n.key, ExistingKey: sm.nodes[existing].key}
		}
	}
	if hadURL {
		delete(sm.urlIndex, oldKey)
		delete(sm.urlOf, n.idx)
	}
	if hasURL {
		sm.urlIndex[newKey] = n.idx
		sm.urlOf[n.idx] = newKey
	}
	return nil
}

func removeIndex(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}

// ChildNodes returns node's children, dropping the ones the current user
// cannot access when security trimming is enabled.
func (sm *SiteMap) ChildNodes(ctx context.Context, node *Node) []*Node {
	children := node.ChildNodes()
	if !sm.settings.SecurityTrimmingEnabled {
		return children
	}
	out := children[:0]
	for _, c := range children {
		if c.IsAccessibleToUser(ctx) {
			out = append(out, c)
		}
	}
	return out
}
