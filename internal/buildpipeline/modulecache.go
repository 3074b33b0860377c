package buildpipeline

import (
	"sync"

	"nixgen/internal/project"
)

// minimal per-process cache by module name + cache key
type cachedOutput struct {
	key    project.Digest
	output string
}

// ModuleCache keeps generated output in memory between builds of the same
// process. Safe for concurrent use.
type ModuleCache struct {
	mu     sync.RWMutex
	byName map[string]cachedOutput
}

// NewModuleCache creates a ModuleCache with the given capacity hint.
func NewModuleCache(capHint int) *ModuleCache {
	return &ModuleCache{byName: make(map[string]cachedOutput, capHint)}
}

// Get returns the output stored for module under key.
func (c *ModuleCache) Get(module string, key project.Digest) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	rec, ok := c.byName[module]
	c.mu.RUnlock()
	if !ok || rec.key != key {
		return "", false
	}
	return rec.output, true
}

// Put replaces the entry of module.
func (c *ModuleCache) Put(module string, key project.Digest, output string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byName[module] = cachedOutput{key: key, output: output}
	c.mu.Unlock()
}

// Len returns the number of cached modules.
func (c *ModuleCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}
