package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-tplengine/pkg/model"
)

// MemoryConfig configures the in-memory backend.
type MemoryConfig struct {
	// MaxSize bounds the number of entries; the least recently used entry is
	// evicted first. Zero means unbounded.
	MaxSize int
	// TTL expires every entry after the given duration regardless of the
	// template's own validity. Zero disables it.
	TTL time.Duration
}

// Stats reports cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Memory is an LRU cache guarded by a single mutex.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	lru     *list.List
	config  MemoryConfig
	now     func() time.Time

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type memoryEntry struct {
	key      Key
	model    *model.Model
	storedAt time.Time
	element  *list.Element
}

// Ensure Memory satisfies the Cache contract.
var _ Cache = (*Memory)(nil)

// NewMemory creates an in-memory cache.
func NewMemory(config MemoryConfig) *Memory {
	return &Memory{
		entries: make(map[string]*memoryEntry),
		lru:     list.New(),
		config:  config,
		now:     time.Now,
	}
}

// Get returns the model stored under key when present and still valid.
func (c *Memory) Get(key Key) (*model.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key.String()]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if !c.valid(entry) {
		c.removeLocked(entry)
		c.misses.Add(1)
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	c.hits.Add(1)
	return entry.model, true
}

// Put stores m under key, replacing any previous entry.
func (c *Memory) Put(key Key, m *model.Model) {
	if m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.String()
	if existing, ok := c.entries[id]; ok {
		existing.model = m
		existing.storedAt = c.now()
		c.lru.MoveToFront(existing.element)
		return
	}

	if c.config.MaxSize > 0 {
		for c.lru.Len() >= c.config.MaxSize {
			oldest := c.lru.Back()
			if oldest == nil {
				break
			}
			c.removeLocked(oldest.Value.(*memoryEntry))
			c.evictions.Add(1)
		}
	}

	entry := &memoryEntry{key: key, model: m, storedAt: c.now()}
	entry.element = c.lru.PushFront(entry)
	c.entries[id] = entry
}

// Delete removes the entry stored under key.
func (c *Memory) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key.String()]; ok {
		c.removeLocked(entry)
	}
}

// Clear removes every entry.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memoryEntry)
	c.lru = list.New()
}

// Keys returns a snapshot of stored keys, most recently used first.
func (c *Memory) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*memoryEntry).key)
	}
	return keys
}

// Len returns the number of stored entries.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Memory) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
	}
}

func (c *Memory) valid(entry *memoryEntry) bool {
	if c.config.TTL > 0 && !c.now().Before(entry.storedAt.Add(c.config.TTL)) {
		return false
	}
	validity := entry.model.Descriptor().Validity
	if validity == nil {
		return true
	}
	return validity.StillValid(entry.storedAt)
}

func (c *Memory) removeLocked(entry *memoryEntry) {
	delete(c.entries, entry.key.String())
	c.lru.Remove(entry.element)
}
