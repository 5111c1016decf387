package apps

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/cozy/apps-engine/pkg/logger"
)

// MemRegistry is the in-process reference implementation of Registry
// (spec.md C7's "implementation is external" contract). It backs
// AppItems in memory and app/PWA trees on an afero.Fs, so it is equally
// usable against the real disk (afero.NewOsFs()) or an in-memory
// filesystem in tests (afero.NewMemMapFs()).
type MemRegistry struct {
	mu   sync.Mutex
	fs   afero.Fs
	apps map[string]*AppItem // keyed by update_url
	hub  *Hub

	vhostPort int
	log       logger.Logger
}

// NewMemRegistry builds an empty registry over fs whose manifest URLs use
// the given virtual-host port.
func NewMemRegistry(fs afero.Fs, vhostPort int) *MemRegistry {
	return &MemRegistry{
		fs:        fs,
		apps:      make(map[string]*AppItem),
		hub:       NewHub(),
		vhostPort: vhostPort,
		log:       logger.WithNamespace("apps-registry"),
	}
}

// Hub exposes the registry's event hub so callers can mount it behind a
// websocket endpoint.
func (r *MemRegistry) Hub() *Hub { return r.hub }

func (r *MemRegistry) manifestURL(name string) string {
	return fmt.Sprintf("http://%s.localhost:%d/manifest.webmanifest", name, r.vhostPort)
}

// GetByUpdateURL implements Registry.
func (r *MemRegistry) GetByUpdateURL(updateURL string) (*AppItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.apps[updateURL]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// Uniquify implements Registry. Names collide only across distinct
// update_urls; renewing the same update_url keeps its existing name.
func (r *MemRegistry) Uniquify(proposedName, updateURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.apps[updateURL]; ok {
		return existing.Name, nil
	}

	taken := make(map[string]struct{}, len(r.apps))
	for _, item := range r.apps {
		taken[item.Name] = struct{}{}
	}

	if _, clash := taken[proposedName]; !clash {
		return proposedName, nil
	}
	for {
		candidate := fmt.Sprintf("%s-%s", proposedName, uuid.NewString()[:8])
		if _, clash := taken[candidate]; !clash {
			return candidate, nil
		}
	}
}

// SaveApp implements Registry.
func (r *MemRegistry) SaveApp(isUpdate bool, item *AppItem, manifest *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ManifestURL == "" {
		item.ManifestURL = r.manifestURL(item.Name)
	}
	if data, err := manifest.Bytes(); err == nil {
		item.ManifestHash = manifestHash(data)
	}

	r.apps[item.UpdateURL] = item.Clone()
	return nil
}

// Restore implements Registry.
func (r *MemRegistry) Restore(isUpdate bool, prior *AppItem, priorManifest *Manifest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !isUpdate {
		delete(r.apps, prior.UpdateURL)
		return
	}
	restored := prior.Clone()
	restored.UpdateState = Available
	r.apps[restored.UpdateURL] = restored
}

// ApplyDownload implements Registry: writes the packaged manifest to
// apps/<name>/manifest.webmanifest and flips the item to Installed. The
// other entries of application.zip are not extracted, and stagingDir is
// left in place.
func (r *MemRegistry) ApplyDownload(item *AppItem, stagingDir string, packaged *Manifest, webappPath string, isUpdate bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appDir := filepath.Join(webappPath, "apps", item.Name)
	if err := r.fs.MkdirAll(appDir, 0o755); err != nil {
		return fmt.Errorf("apply download: %w", err)
	}
	if data, err := packaged.Bytes(); err == nil {
		if err := afero.WriteFile(r.fs, filepath.Join(appDir, "manifest.webmanifest"), data, 0o644); err != nil {
			return fmt.Errorf("apply download: %w", err)
		}
	}

	item.Version = packaged.Version
	item.InstallState = Installed
	item.UpdateState = Idle
	r.apps[item.UpdateURL] = item.Clone()
	return nil
}

// ApplyPWA implements Registry: moves cacheDir's manifest + icons into
// cached/<name>/ and flips the item to Installed.
func (r *MemRegistry) ApplyPWA(item *AppItem, cacheDir string, manifest *Manifest, webappPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	destDir := filepath.Join(webappPath, "cached", item.Name)
	if err := r.fs.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("apply pwa: %w", err)
	}
	if err := copyTree(r.fs, cacheDir, destDir); err != nil {
		return fmt.Errorf("apply pwa: %w", err)
	}
	if err := r.fs.RemoveAll(cacheDir); err != nil {
		return fmt.Errorf("apply pwa: %w", err)
	}

	item.InstallState = Installed
	item.UpdateState = Idle
	r.apps[item.UpdateURL] = item.Clone()
	return nil
}

// BroadcastInstalling implements Registry.
func (r *MemRegistry) BroadcastInstalling(isUpdate bool, obj AppsObject) {
	r.hub.BroadcastAppInstalling(obj)
}

// Broadcaster implements Registry.
func (r *MemRegistry) Broadcaster() Broadcaster { return r.hub }

func copyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		return afero.WriteFile(fs, target, data, 0o644)
	})
}
