package apps

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/cozy/apps-engine/pkg/downloader"
)

// InstallPWA implements the PWA install pipeline, spec.md C6 / §4.6. PWA
// installs are not cancelable in this version (no cancel-slot registration
// is performed for the manifest or icon downloads).
func (e *Engine) InstallPWA(ctx context.Context, webappPath, updateURL string) (*AppsObject, error) {
	cacheDir := filepath.Join(webappPath, "downloading", hashURL(updateURL))
	manifestPath := filepath.Join(cacheDir, "manifest.webmanifest")

	if err := e.FS.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, ErrDownloadManifestFailed
	}

	e.log.Debugf("downloading %s to %s", updateURL, manifestPath)
	completion, _ := e.Downloader.Download(ctx, updateURL, manifestPath)
	timeoutCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()
	if err := downloader.Await(timeoutCtx, completion); err != nil {
		e.log.Errorf("downloading %s to %s failed: %s", updateURL, manifestPath, err)
		return nil, ErrDownloadManifestFailed
	}

	data, err := afero.ReadFile(e.FS, manifestPath)
	if err != nil {
		return nil, ErrDownloadManifestFailed
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, ErrInvalidManifest
	}

	name, err := e.Registry.Uniquify(manifest.Name, updateURL)
	if err != nil {
		return nil, err
	}
	item := &AppItem{
		Name:         name,
		UpdateURL:    updateURL,
		IsPWA:        true,
		Removable:    true,
		InstallState: Installing,
	}

	// PWA save_app errors are logged but not propagated (spec.md §9 note
	// 1): a stricter implementation may want to fail the install here,
	// but the behavior is left unchanged without explicit direction.
	if err := e.Registry.SaveApp(false, item, manifest); err != nil {
		e.log.Warnf("save_app failed for pwa %s: %s", name, err)
	}
	e.Registry.BroadcastInstalling(false, AppsObjectFrom(item))

	updateURLBase, err := url.Parse(updateURL)
	if err != nil {
		return nil, ErrInvalidManifest
	}
	manifestURLBase, err := url.Parse(item.ManifestURL)
	if err != nil {
		return nil, ErrInvalidManifest
	}

	var iconErrs error
	for i := range manifest.Icons {
		icon := &manifest.Icons[i]
		src := strings.TrimPrefix(icon.Src, "/")
		iconPath := filepath.Join(cacheDir, filepath.FromSlash(src))

		downloadURL, err := updateURLBase.Parse(icon.Src)
		if err != nil {
			return nil, ErrInvalidManifest
		}

		if err := e.FS.MkdirAll(filepath.Dir(iconPath), 0o755); err != nil {
			iconErrs = multierror.Append(iconErrs, err)
		}

		iconCompletion, _ := e.Downloader.Download(ctx, downloadURL.String(), iconPath)
		iconCtx, iconCancel := context.WithTimeout(ctx, downloadTimeout)
		if derr := downloader.Await(iconCtx, iconCompletion); derr != nil {
			e.log.Errorf("failed to download icon %s -> %s: %s", downloadURL, iconPath, derr)
			iconErrs = multierror.Append(iconErrs, derr)
		}
		iconCancel()

		cachedURL, err := manifestURLBase.Parse(src)
		if err != nil {
			return nil, ErrInvalidManifest
		}
		icon.Src = cachedURL.String()
	}
	if iconErrs != nil {
		e.log.Warnf("pwa %s: some icons failed to download: %s", name, iconErrs)
	}

	startURL, err := updateURLBase.Parse(manifest.StartURL)
	if err != nil {
		return nil, ErrInvalidStartURL
	}
	manifest.StartURL = startURL.String()

	// Icons/StartURL were mutated in place, so the cached manifest must be
	// re-marshaled rather than re-using the originally downloaded bytes.
	manifest.raw = nil
	rewritten, err := manifest.Bytes()
	if err != nil {
		return nil, ErrInvalidManifest
	}
	if err := afero.WriteFile(e.FS, manifestPath, rewritten, 0o644); err != nil {
		return nil, ErrInvalidManifest
	}

	if err := e.Registry.ApplyPWA(item, cacheDir, manifest, webappPath); err != nil {
		return nil, err
	}

	obj := AppsObjectFrom(item)
	return &obj, nil
}
