package cache

import (
	"sort"
	"strings"
	"time"
)

// Policy controls how long a cached response is fresh and for how long
// after that it may still be served while a refresh runs in the
// background.
type Policy struct {
	MaxAge               time.Duration
	StaleWhileRevalidate time.Duration
}

// TTL is the total lifetime of a stored entry. Past it the entry is gone
// and the next request pays the full origin cost.
func (p Policy) TTL() time.Duration {
	return p.MaxAge + p.StaleWhileRevalidate
}

// rule binds a path pattern to a policy. Pattern segments starting with
// ':' match any single path segment.
type rule struct {
	segments []string
	policy   Policy
}

// PolicyTable resolves request paths to cache policies. Only paths with a
// matching rule are cached at all.
type PolicyTable struct {
	rules []rule
}

// NewPolicyTable builds a table from pattern to policy. Literal patterns
// take precedence over wildcard ones, so /posts/hot wins over /posts/:id.
func NewPolicyTable(policies map[string]Policy) *PolicyTable {
	t := &PolicyTable{}
	for pattern, policy := range policies {
		t.rules = append(t.rules, rule{segments: splitPath(pattern), policy: policy})
	}
	sort.Slice(t.rules, func(i, j int) bool {
		return wildcards(t.rules[i].segments) < wildcards(t.rules[j].segments)
	})
	return t
}

func wildcards(segments []string) int {
	n := 0
	for _, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			n++
		}
	}
	return n
}

// DefaultPolicies covers the read endpoints worth caching. Volatile
// listings get short windows, stable content longer ones.
func DefaultPolicies() *PolicyTable {
	return NewPolicyTable(map[string]Policy{
		"/api/v1/posts":               {MaxAge: 5 * time.Minute, StaleWhileRevalidate: 10 * time.Minute},
		"/api/v1/posts/hot":           {MaxAge: 10 * time.Minute, StaleWhileRevalidate: 20 * time.Minute},
		"/api/v1/posts/:id":           {MaxAge: 10 * time.Minute, StaleWhileRevalidate: 20 * time.Minute},
		"/api/v1/posts/:id/comments":  {MaxAge: 3 * time.Minute, StaleWhileRevalidate: 5 * time.Minute},
		"/api/v1/posts/:id/like":      {MaxAge: time.Minute, StaleWhileRevalidate: 2 * time.Minute},
		"/api/v1/users/:id/posts":     {MaxAge: 10 * time.Minute, StaleWhileRevalidate: 20 * time.Minute},
		"/api/v1/users/:id/follow":    {MaxAge: time.Minute, StaleWhileRevalidate: 2 * time.Minute},
		"/api/v1/messages":            {MaxAge: time.Minute, StaleWhileRevalidate: 2 * time.Minute},
		"/api/v1/messages/unread":     {MaxAge: time.Minute, StaleWhileRevalidate: 2 * time.Minute},
	})
}

// Lookup returns the policy for path, or false when the path is not
// cacheable.
func (t *PolicyTable) Lookup(path string) (Policy, bool) {
	segments := splitPath(path)
	for _, r := range t.rules {
		if matchSegments(r.segments, segments) {
			return r.policy, true
		}
	}
	return Policy{}, false
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}
