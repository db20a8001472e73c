// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafartype

import "sync"

// Cache maps a Fingerprint to its Binding. It may be shared by many
// TypeHandles, and by TypeHandles spanning several Sessions over several
// recordings (see jafarsession.ParsingContext): a recording's chunks are
// decoded one at a time on a single goroutine, but lookups against a
// shared Cache can race with each other, so they take the read lock and
// only a cache miss takes the write lock to install a freshly built
// Binding.
type Cache struct {
	mu sync.RWMutex
	m  map[Fingerprint]*Binding
}

// NewCache returns an empty Cache, private to whatever declares it.
func NewCache() *Cache {
	return &Cache{m: make(map[Fingerprint]*Binding)}
}

func (c *Cache) get(fp Fingerprint) (*Binding, bool) {
	c.mu.RLock()
	b, ok := c.m[fp]
	c.mu.RUnlock()
	return b, ok
}

func (c *Cache) put(fp Fingerprint, b *Binding) {
	c.mu.Lock()
	c.m[fp] = b
	c.mu.Unlock()
}

// Clear discards every cached binding.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[Fingerprint]*Binding)
	c.mu.Unlock()
}

// Len reports how many distinct structural shapes are currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
