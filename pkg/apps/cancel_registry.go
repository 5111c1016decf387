package apps

import (
	"sync"

	"github.com/cozy/apps-engine/pkg/downloader"
)

// CancelRegistry is the process-wide mapping update_url -> cancel handle
// (spec.md C3). A second set() for the same URL overwrites the prior
// handle in place; the orphaned download is no longer cancelable, which
// is the documented, tolerated "last writer wins" behavior (spec.md §5).
type CancelRegistry struct {
	mu      sync.Mutex
	handles map[string]downloader.Handle
}

// NewCancelRegistry builds an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{handles: make(map[string]downloader.Handle)}
}

// Set installs (or replaces) the cancel handle for url.
func (r *CancelRegistry) Set(url string, handle downloader.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[url] = handle
}

// Remove deletes any handle registered for url, unconditionally. This is
// the latent bug spec.md §9 note 4 calls out: a newer install's handle can
// be removed by an older run's guard. Spec.md §5 tolerates this rather
// than mandating the compare-and-delete fix, so it is intentionally left
// as-is.
func (r *CancelRegistry) Remove(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, url)
}

// Cancel fires the handle registered for url, if any. It reports whether a
// handle was found.
func (r *CancelRegistry) Cancel(url string) bool {
	r.mu.Lock()
	handle, ok := r.handles[url]
	r.mu.Unlock()
	if !ok {
		return false
	}
	handle.Cancel()
	return true
}

// Len reports how many cancel slots are currently registered (test hook).
func (r *CancelRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
