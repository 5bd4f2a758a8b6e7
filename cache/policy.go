package cache

import (
	"fmt"
	"time"
)

// Policy configures how long built entries stay cached.
type Policy struct {
	// AbsoluteExpiration is the lifetime of an entry after it is added.
	// If zero, entries do not expire on a timer.
	AbsoluteExpiration time.Duration

	// SlidingExpiration evicts entries not read for this long. Zero disables it.
	SlidingExpiration time.Duration

	// MaxTTL is the maximum allowed absolute lifetime. Overrides are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
// AbsoluteExpiration: 5 minutes, MaxTTL: 24 hours, no sliding expiration.
func DefaultPolicy() Policy {
	return Policy{
		AbsoluteExpiration: 5 * time.Minute,
		MaxTTL:             24 * time.Hour,
	}
}

// NoExpirationPolicy returns a policy whose entries live until removed or
// invalidated by a dependency.
func NoExpirationPolicy() Policy {
	return Policy{}
}

// Validate checks the policy for negative durations.
func (p Policy) Validate() error {
	if p.AbsoluteExpiration < 0 || p.SlidingExpiration < 0 || p.MaxTTL < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidPolicy)
	}
	return nil
}

// EffectiveTTL returns the absolute lifetime to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.AbsoluteExpiration
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && (ttl == 0 || ttl > p.MaxTTL) {
		ttl = p.MaxTTL
	}

	return ttl
}

// Details converts the policy into entry details bound to deps.
func (p Policy) Details(deps ...Dependency) Details {
	return Details{
		AbsoluteExpiration: p.EffectiveTTL(0),
		SlidingExpiration:  p.SlidingExpiration,
		Dependencies:       deps,
	}
}
