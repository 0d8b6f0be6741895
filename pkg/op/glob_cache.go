package op

import (
	"sync"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru"
)

const globCacheSize = 1024

var (
	globCacheOnce sync.Once
	globCache     *lru.Cache
)

type compiledGlob struct {
	glob glob.Glob
	err  error
}

func compiledGlobs() *lru.Cache {
	globCacheOnce.Do(func() {
		// lru.New only fails for a non-positive size.
		globCache, _ = lru.New(globCacheSize)
	})
	return globCache
}

// CompileGlob compiles the pattern with '/', '?' and '#' as separators,
// so '*' never spans a path segment and '**' does. Results, failures
// included, are cached by pattern.
func CompileGlob(pattern string) (glob.Glob, error) {
	cache := compiledGlobs()
	if v, ok := cache.Get(pattern); ok {
		c := v.(compiledGlob)
		return c.glob, c.err
	}
	g, err := glob.Compile(pattern, '/', '?', '#')
	cache.Add(pattern, compiledGlob{glob: g, err: err})
	return g, err
}

// matchesAnyGlob reports whether s matches one of the patterns.
// Patterns which do not compile never match.
func matchesAnyGlob(s string, patterns []string) bool {
	for _, pattern := range patterns {
		if g, err := CompileGlob(pattern); err == nil && g.Match(s) {
			return true
		}
	}
	return false
}
