package keyed

import (
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

var tokens atomic.Uint64

func nextToken() uint64 {
	return tokens.Add(1)
}

// identityKey pairs the item type with a weak handle on the referent.
// Handles of distinct objects never compare equal, even when the runtime
// reuses a collected object's address for a new one.
type identityKey struct {
	typ reflect.Type
	ref weak.Pointer[byte]
}

// identityMap associates reference-like items with a process-wide token
// without touching the items. Entries are dropped once the referent is
// collected.
type identityMap struct {
	mu  sync.Mutex
	ids map[identityKey]uint64
}

var identities = &identityMap{ids: make(map[identityKey]uint64)}

func (m *identityMap) id(v reflect.Value) uint64 {
	p := (*byte)(v.UnsafePointer())
	k := identityKey{typ: v.Type(), ref: weak.Make(p)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[k]; ok {
		return id
	}
	id := nextToken()
	m.ids[k] = id
	runtime.AddCleanup(p, m.forget, k)
	return id
}

func (m *identityMap) forget(k identityKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, k)
}

func (m *identityMap) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

// instanceID returns the identity token of a non-nil pointer, map or
// channel item. Pointers to zero-size values share one address and have
// no instance identity.
func instanceID(item any) (uint64, bool) {
	v := reflect.ValueOf(item)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return 0, false
		}
		if v.Kind() == reflect.Pointer && v.Type().Elem().Size() == 0 {
			return 0, false
		}
		return identities.id(v), true
	}
	return 0, false
}
