package urid

import (
	"sync"

	"github.com/leandrodaf/vslpt/sdk/contracts"
)

// Map is an in-process URI to URID table. It is safe for concurrent use
// and may be shared between plugin instances.
type Map struct {
	mu   sync.RWMutex
	ids  map[string]contracts.URID
	uris []string
}

// New returns an empty table. The first URI mapped gets URID 1.
func New() *Map {
	return &Map{ids: make(map[string]contracts.URID)}
}

// Map returns the URID for uri, assigning a new one on first use.
func (m *Map) Map(uri string) contracts.URID {
	m.mu.RLock()
	id, ok := m.ids[uri]
	m.mu.RUnlock()
	if ok {
		return id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[uri]; ok {
		return id
	}
	m.uris = append(m.uris, uri)
	id = contracts.URID(len(m.uris))
	m.ids[uri] = id
	return id
}

// Unmap returns the URI behind id, or "" if id was never handed out.
func (m *Map) Unmap(id contracts.URID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id == 0 || int(id) > len(m.uris) {
		return ""
	}
	return m.uris[id-1]
}
