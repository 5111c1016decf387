package apps

import (
	"github.com/spf13/afero"
)

// DirGuard recursively removes its staging directory on scope exit unless
// Disarm was called (spec.md C1). InstallOrUpdatePackage arms one with
// `defer guard.Run()` once RegisterIntent succeeds; the PWA pipeline does
// not use one.
type DirGuard struct {
	fs    afero.Fs
	path  string
	armed bool
}

// NewDirGuard arms a guard over path. Call Disarm once the run commits.
func NewDirGuard(fs afero.Fs, path string) *DirGuard {
	return &DirGuard{fs: fs, path: path, armed: true}
}

// Disarm marks the guard as not needing cleanup (the run succeeded).
func (g *DirGuard) Disarm() { g.armed = false }

// Run performs the cleanup; safe to call via defer. Errors are ignored,
// per spec.md's "recursively removes path ignoring errors".
func (g *DirGuard) Run() {
	if !g.armed {
		return
	}
	_ = g.fs.RemoveAll(g.path)
}

// CancelSlotGuard removes its update_url from the Cancellation Registry on
// scope exit. It is always armed: the registry entry is never valid
// outside a pipeline run (spec.md C1).
type CancelSlotGuard struct {
	registry *CancelRegistry
	url      string
}

// NewCancelSlotGuard arms a guard over url.
func NewCancelSlotGuard(registry *CancelRegistry, url string) *CancelSlotGuard {
	return &CancelSlotGuard{registry: registry, url: url}
}

// Run removes the cancel slot. Always fires; there is no Disarm (spec.md
// §4.1 and §9 note 4: removal happens unconditionally on exit).
//
// BUG: this can remove a newer pipeline run's handle for the same
// update_url if an older run's guard fires after the newer Set (the
// "last writer wins" case tracked by CancelRegistry.Remove). The fix
// would be a compare-and-delete keyed on handle identity; spec.md §5
// tolerates the current behavior, so it is left as-is.
func (g *CancelSlotGuard) Run() {
	g.registry.Remove(g.url)
}

// AppStateGuard restores registry state on scope exit unless Disarm was
// called (spec.md C1). For a new install this removes the AppItem; for an
// update it reinstates the prior snapshot and marks UpdateState=Available.
type AppStateGuard struct {
	registry Registry
	armed    bool

	isUpdate      bool
	priorSnap     *AppItem
	priorManifest *Manifest
}

// NewAppStateGuard arms a guard that will call registry.Restore on exit.
func NewAppStateGuard(registry Registry, isUpdate bool, priorSnap *AppItem, priorManifest *Manifest) *AppStateGuard {
	return &AppStateGuard{
		registry:      registry,
		armed:         true,
		isUpdate:      isUpdate,
		priorSnap:     priorSnap,
		priorManifest: priorManifest,
	}
}

// Disarm marks the guard as not needing restoration (the run committed).
func (g *AppStateGuard) Disarm() { g.armed = false }

// Run restores registry state; safe to call via defer.
func (g *AppStateGuard) Run() {
	if !g.armed {
		return
	}
	g.registry.Restore(g.isUpdate, g.priorSnap, g.priorManifest)
}
