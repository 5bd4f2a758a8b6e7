package sitemap

import (
	"fmt"
	"strings"
)

// ChangeFrequency is the sitemaps.org changefreq value of a node.
type ChangeFrequency int

const (
	ChangeFrequencyUndefined ChangeFrequency = iota
	ChangeFrequencyAlways
	ChangeFrequencyHourly
	ChangeFrequencyDaily
	ChangeFrequencyWeekly
	ChangeFrequencyMonthly
	ChangeFrequencyYearly
	ChangeFrequencyNever
)

var changeFrequencyNames = [...]string{"", "always", "hourly", "daily", "weekly", "monthly", "yearly", "never"}

// String returns the sitemaps.org token, or "" when undefined.
func (c ChangeFrequency) String() string {
	if c < 0 || int(c) >= len(changeFrequencyNames) {
		return ""
	}
	return changeFrequencyNames[c]
}

// ParseChangeFrequency parses a changefreq token case-insensitively.
func ParseChangeFrequency(s string) (ChangeFrequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "undefined" {
		return ChangeFrequencyUndefined, nil
	}
	for i, name := range changeFrequencyNames {
		if i > 0 && name == s {
			return ChangeFrequency(i), nil
		}
	}
	return ChangeFrequencyUndefined, fmt.Errorf("sitemap: unknown change frequency %q", s)
}

// UpdatePriority is the sitemaps.org priority of a node, in tenths.
// PriorityUndefined omits the value.
type UpdatePriority int

// PriorityUndefined means no priority is emitted.
const PriorityUndefined UpdatePriority = -1

// Float returns the priority as 0.0-1.0.
func (p UpdatePriority) Float() float64 {
	return float64(p) / 10
}

// String formats the priority with one decimal, or "" when undefined.
func (p UpdatePriority) String() string {
	if p == PriorityUndefined {
		return ""
	}
	return fmt.Sprintf("%.1f", p.Float())
}

// PriorityFromFloat converts a 0.0-1.0 value to an UpdatePriority.
func PriorityFromFloat(f float64) (UpdatePriority, error) {
	if f < 0 || f > 1 {
		return PriorityUndefined, fmt.Errorf("%w: %v", ErrInvalidPriority, f)
	}
	return UpdatePriority(f*10 + 0.5), nil
}

var metaRobotsValues = map[string]bool{
	"index":     true,
	"noindex":   true,
	"follow":    true,
	"nofollow":  true,
	"none":      true,
	"noarchive": true,
	"nocache":   true,
	"nosnippet": true,
	"noodp":     true,
	"noydir":    true,
}

func validateMetaRobots(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !metaRobotsValues[v] {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMetaRobots, v)
		}
		out = append(out, v)
	}
	return out, nil
}
