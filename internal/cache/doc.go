// Package cache provides a small generic LRU cache.
//
// Backends use it to memoize expensive derived state across fixtures,
// most notably compiled shader modules keyed by source text: suites
// reuse the same handful of shaders across many fixtures, and
// recompiling per fixture dominates replay time otherwise.
//
//	c := cache.New[string, *Module](64)
//	c.Set(source, module)
//	module, ok := c.Get(source)
//
// Cache is safe for concurrent use and must not be copied after
// creation.
package cache
