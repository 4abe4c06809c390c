package cache

import (
	"github.com/goliatone/go-tplengine/pkg/model"
)

// Cache stores parsed models by key. Get and Put must be atomic; no ordering
// is guaranteed between concurrent writers of the same key (last write wins).
type Cache interface {
	Get(key Key) (*model.Model, bool)
	Put(key Key, m *model.Model)
	Delete(key Key)
	Clear()
	// Keys returns a snapshot of the keys currently stored.
	Keys() []Key
}

// ClearFor removes every entry belonging to the named template: the
// standalone entry itself and every fragment it owns. Keys are collected
// first and deleted afterwards so backends exposing live views stay
// consistent. Entries inserted concurrently may survive. It returns the
// number of keys removed.
func ClearFor(c Cache, name string) int {
	if c == nil {
		return 0
	}
	snapshot := c.Keys()
	doomed := make([]Key, 0, 4)
	for _, key := range snapshot {
		if key.Owner != "" {
			if key.Owner == name {
				doomed = append(doomed, key)
			}
			continue
		}
		if key.Template == name {
			doomed = append(doomed, key)
		}
	}
	for _, key := range doomed {
		c.Delete(key)
	}
	return len(doomed)
}
