package apps

// Registry is the contract the pipelines call into (spec.md C7). A
// production implementation backs this with a real database and a real
// virtual host; apps.MemRegistry is the in-process reference
// implementation used by tests and by a standalone deployment of this
// engine.
type Registry interface {
	// GetByUpdateURL looks up an AppItem by its update_url. Returns
	// (nil, false) on miss.
	GetByUpdateURL(updateURL string) (*AppItem, bool)

	// Uniquify assigns a unique name derived from proposedName, resolving
	// collisions against other AppItems (not against updateURL itself).
	Uniquify(proposedName, updateURL string) (string, error)

	// SaveApp persists apps_item (insert for a new install, update for an
	// update), recording the manifest's hash for later decider use.
	SaveApp(isUpdate bool, item *AppItem, manifest *Manifest) error

	// Restore rolls back to registry state consistent with prior: for a
	// new install this removes the AppItem; for an update this reinstates
	// prior and marks UpdateState=Available.
	Restore(isUpdate bool, prior *AppItem, priorManifest *Manifest)

	// ApplyDownload moves the staged signed package into the live apps/
	// tree and transitions item to Installed (spec.md C5 Apply step).
	ApplyDownload(item *AppItem, stagingDir string, packaged *Manifest, webappPath string, isUpdate bool) error

	// ApplyPWA moves the staged PWA manifest + icons into the live
	// cached/ tree and transitions item to Installed (spec.md C6 step 8).
	ApplyPWA(item *AppItem, cacheDir string, manifest *Manifest, webappPath string) error

	// BroadcastInstalling fires the app_installing lifecycle event.
	BroadcastInstalling(isUpdate bool, obj AppsObject)

	// Broadcaster exposes the lower-level event broadcaster, used by
	// broadcast_download_failed (spec.md §4.8).
	Broadcaster() Broadcaster
}

// DownloadFailedReason is the payload of the app_download_failed event.
type DownloadFailedReason struct {
	AppsObject AppsObject
	Reason     error
}

// Broadcaster is the registry's event surface (spec.md §6 Event surface).
type Broadcaster interface {
	BroadcastAppInstalling(obj AppsObject)
	BroadcastAppDownloadFailed(reason DownloadFailedReason)
}
