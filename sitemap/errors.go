package sitemap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/navkit/urlpath"
)

// Sentinel errors for sitemap operations.
var (
	// Structural build errors
	ErrMultipleRoots = errors.New("sitemap: more than one root node")
	ErrNoRoot        = errors.New("sitemap: no root node")
	ErrOrphanedNodes = errors.New("sitemap: orphaned nodes")
	ErrDuplicateKey  = errors.New("sitemap: duplicate node key")
	ErrDuplicateURL  = errors.New("sitemap: duplicate node url")
	ErrNoBuilder     = errors.New("sitemap: builder is nil")

	// Mutation errors
	ErrReadOnly          = errors.New("sitemap: sitemap is read-only")
	ErrNilNode           = errors.New("sitemap: node is nil")
	ErrEmptyKey          = errors.New("sitemap: node key is empty")
	ErrForeignNode       = errors.New("sitemap: node belongs to another sitemap")
	ErrNodeNotFound      = errors.New("sitemap: node not found")
	ErrParentNotFound    = errors.New("sitemap: parent node not found")
	ErrCanonicalConflict = errors.New("sitemap: canonical key and canonical url are mutually exclusive")
	ErrInvalidMetaRobots = errors.New("sitemap: invalid meta robots value")
	ErrInvalidPriority   = errors.New("sitemap: update priority must be between 0.0 and 1.0")
)

// DuplicateKeyError reports a node key that is already indexed.
type DuplicateKeyError struct {
	Key string
}

// Error returns the error message.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("sitemap: duplicate node key %q", e.Key)
}

// Is reports whether this error matches the target.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// DuplicateURLError reports a node whose URL key collides with another node's.
type DuplicateURLError struct {
	URL         urlpath.Key
	Key         string
	ExistingKey string
}

// Error returns the error message.
func (e *DuplicateURLError) Error() string {
	return fmt.Sprintf("sitemap: node %q has url %q already used by node %q", e.Key, e.URL.String(), e.ExistingKey)
}

// Is reports whether this error matches the target.
func (e *DuplicateURLError) Is(target error) bool {
	return target == ErrDuplicateURL
}

// MultipleRootsError reports more than one parentless node.
type MultipleRootsError struct {
	Keys    []string
	Sources []string
}

// Error returns the error message.
func (e *MultipleRootsError) Error() string {
	return fmt.Sprintf("sitemap: more than one root node: keys=[%s] sources=[%s]",
		strings.Join(e.Keys, ", "), strings.Join(e.Sources, ", "))
}

// Is reports whether this error matches the target.
func (e *MultipleRootsError) Is(target error) bool {
	return target == ErrMultipleRoots
}

// NoRootError reports a relation set without a parentless node.
type NoRootError struct {
	Sources []string
}

// Error returns the error message.
func (e *NoRootError) Error() string {
	if len(e.Sources) == 0 {
		return "sitemap: no root node"
	}
	return fmt.Sprintf("sitemap: no root node in sources [%s]", strings.Join(e.Sources, ", "))
}

// Is reports whether this error matches the target.
func (e *NoRootError) Is(target error) bool {
	return target == ErrNoRoot
}

// Orphan is a node whose parent key never resolved.
type Orphan struct {
	Key       string
	ParentKey string
	Source    string
}

// OrphanedNodesError lists every node that could not be attached.
type OrphanedNodesError struct {
	Orphans []Orphan
}

// Error returns the error message.
func (e *OrphanedNodesError) Error() string {
	parts := make([]string, 0, len(e.Orphans))
	for _, o := range e.Orphans {
		parts = append(parts, fmt.Sprintf("%q (parent %q, source %q)", o.Key, o.ParentKey, o.Source))
	}
	return fmt.Sprintf("sitemap: %d orphaned node(s): %s", len(e.Orphans), strings.Join(parts, "; "))
}

// Is reports whether this error matches the target.
func (e *OrphanedNodesError) Is(target error) bool {
	return target == ErrOrphanedNodes
}

// IsStructural reports whether err is a fatal tree-shape or index-integrity error.
func IsStructural(err error) bool {
	return errors.Is(err, ErrMultipleRoots) ||
		errors.Is(err, ErrNoRoot) ||
		errors.Is(err, ErrOrphanedNodes) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrDuplicateURL)
}
