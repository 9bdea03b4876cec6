package urlhandler

import (
	rngerrors "github.com/jacoelho/rnginline/errors"
)

// Memory serves a fixed mapping of URL to content. It claims exactly the
// URLs it was given, whatever their scheme, which makes it useful for tests
// and for callers that assemble schema sets in memory.
type Memory struct {
	resources map[string][]byte
}

// NewMemory builds a handler serving the given URL to content mapping.
func NewMemory(resources map[string][]byte) *Memory {
	copied := make(map[string][]byte, len(resources))
	for u, data := range resources {
		copied[u] = data
	}
	return &Memory{resources: copied}
}

// CanHandle reports whether u is one of the registered URLs.
func (h *Memory) CanHandle(u string) bool {
	_, ok := h.resources[u]
	return ok
}

// Dereference returns the registered content for u.
func (h *Memory) Dereference(u string) ([]byte, error) {
	data, ok := h.resources[u]
	if !ok {
		return nil, rngerrors.Newf(rngerrors.ErrResourceNotFound, "no resource registered").WithURI(u)
	}
	return data, nil
}
