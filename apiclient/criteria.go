package apiclient

import (
	"regexp"
	"strings"
	"sync"
)

type criteriaKind uint8

const (
	criteriaAny criteriaKind = iota
	criteriaMethod
	criteriaPath
)

// MatchCriteria decides whether a hijack entry applies to a request.
//
// MatchCriteria is comparable and is part of the Registry key: registering
// twice with equal criteria for the same response type overwrites.
type MatchCriteria struct {
	kind    criteriaKind
	method  Method
	pattern string
}

// Any matches every request.
func Any() MatchCriteria {
	return MatchCriteria{kind: criteriaAny}
}

// MethodIs matches requests with method m.
func MethodIs(m Method) MatchCriteria {
	return MatchCriteria{kind: criteriaMethod, method: m}
}

// Path matches requests whose path contains a match of the regular
// expression pattern. The search is unanchored: use "^" and "$" to match
// the whole path. When pattern is not a valid expression the path must
// contain it literally.
//
//	apiclient.Path(`/posts/\d+`)  // matches "/posts/42" and "/v1/posts/42/comments"
//	apiclient.Path(`^/posts$`)    // matches "/posts" only
func Path(pattern string) MatchCriteria {
	return MatchCriteria{kind: criteriaPath, pattern: pattern}
}

// Matches reports whether req satisfies the criteria.
func (c MatchCriteria) Matches(req Request) bool {
	switch c.kind {
	case criteriaAny:
		return true
	case criteriaMethod:
		return req.Method() == c.method
	case criteriaPath:
		return matchPath(req.Path(), c.pattern)
	default:
		return false
	}
}

func (c MatchCriteria) String() string {
	switch c.kind {
	case criteriaMethod:
		return "method(" + string(c.method) + ")"
	case criteriaPath:
		return "path(" + c.pattern + ")"
	default:
		return "any"
	}
}

func matchPath(path, pattern string) bool {
	if re := patterns.get(pattern); re != nil {
		return re.MatchString(path)
	}
	return strings.Contains(path, pattern)
}

// patternCache memoizes compiled path patterns. A nil entry records a
// pattern that does not compile.
type patternCache struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

var patterns = &patternCache{cache: make(map[string]*regexp.Regexp)}

func (p *patternCache) get(pattern string) *regexp.Regexp {
	p.mu.RLock()
	if re, ok := p.cache[pattern]; ok {
		p.mu.RUnlock()
		return re
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if re, ok := p.cache[pattern]; ok {
		return re
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	p.cache[pattern] = re
	return re
}
