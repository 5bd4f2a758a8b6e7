package loader

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/navkit/cache"
	"github.com/jonwraymond/navkit/sitemap"
)

// DefaultBuilderSetName is the set used when no mapping applies.
const DefaultBuilderSetName = "default"

// BuilderSet is a named recipe for building and caching one kind of sitemap.
type BuilderSet struct {
	// Name identifies the set. Matched case-insensitively.
	Name string

	// Builder populates new sitemaps. Required.
	Builder sitemap.Builder

	// Settings are copied onto every sitemap the set builds.
	Settings sitemap.Settings

	// Policy controls how long built sitemaps stay cached.
	Policy cache.Policy

	// Dependencies returns the dependencies that evict the sitemap stored
	// under cacheKey. Optional.
	Dependencies func(cacheKey string) []cache.Dependency
}

// Validate checks the set for a name, a builder, and a valid policy.
func (b BuilderSet) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBuilderSet)
	}
	if b.Builder == nil {
		return fmt.Errorf("%w: %q has no builder", ErrInvalidBuilderSet, b.Name)
	}
	if err := b.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidBuilderSet, b.Name, err)
	}
	return nil
}

// AppliesTo reports whether the set answers to name.
func (b BuilderSet) AppliesTo(name string) bool {
	return strings.EqualFold(b.Name, name)
}

// Details returns the cache entry details for a sitemap stored under cacheKey.
func (b BuilderSet) Details(cacheKey string) cache.Details {
	var deps []cache.Dependency
	if b.Dependencies != nil {
		deps = b.Dependencies(cacheKey)
	}
	return b.Policy.Details(deps...)
}

// StaticDependencies returns a Dependencies function that hands every entry
// the same dependencies.
func StaticDependencies(deps ...cache.Dependency) func(string) []cache.Dependency {
	return func(string) []cache.Dependency { return deps }
}

// BuilderSetStrategy selects a BuilderSet by name.
type BuilderSetStrategy struct {
	sets []BuilderSet
}

// NewBuilderSetStrategy validates sets and rejects duplicate names.
func NewBuilderSetStrategy(sets ...BuilderSet) (*BuilderSetStrategy, error) {
	if len(sets) == 0 {
		return nil, ErrNoBuilderSets
	}
	for i, s := range sets {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		for _, prev := range sets[:i] {
			if prev.AppliesTo(s.Name) {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateBuilderSet, s.Name)
			}
		}
	}
	return &BuilderSetStrategy{sets: append([]BuilderSet(nil), sets...)}, nil
}

// BuilderSet returns the set named name.
func (s *BuilderSetStrategy) BuilderSet(name string) (BuilderSet, error) {
	for _, set := range s.sets {
		if set.AppliesTo(name) {
			return set, nil
		}
	}
	return BuilderSet{}, fmt.Errorf("%w: %q", ErrUnknownBuilderSet, name)
}

// Names returns the registered set names in registration order.
func (s *BuilderSetStrategy) Names() []string {
	names := make([]string, len(s.sets))
	for i, set := range s.sets {
		names[i] = set.Name
	}
	return names
}
