package coordinator

import (
	"sort"
	"sync"

	"github.com/ghalamif/EdgeHub/internal/domain"
)

// latestCache holds the most recent record per name. Values are copied on
// the way in and on the way out.
type latestCache[T domain.Record] struct {
	mu sync.RWMutex
	m  map[string]T
}

func newLatestCache[T domain.Record]() *latestCache[T] {
	return &latestCache[T]{m: make(map[string]T)}
}

func (c *latestCache[T]) put(v T) {
	cp, _ := domain.CloneRecord(v).(T)
	c.mu.Lock()
	c.m[v.RecordName()] = cp
	c.mu.Unlock()
}

func (c *latestCache[T]) get(name string) (domain.Record, bool) {
	c.mu.RLock()
	v, ok := c.m[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return domain.CloneRecord(v), true
}

func (c *latestCache[T]) names() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.m))
	for name := range c.m {
		out = append(out, name)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (c *latestCache[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
