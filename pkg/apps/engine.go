package apps

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/cozy/apps-engine/pkg/downloader"
	"github.com/cozy/apps-engine/pkg/logger"
)

// downloadTimeout is the single wall-clock timeout enforced on every
// download's completion-await (spec.md §4.2 / §5).
const downloadTimeout = 600 * time.Second

// DiskSpaceChecker reports the bytes available at path. Assumed external
// per spec.md §1 Non-goals ("the low-level filesystem helpers... assumed");
// a default backed by the real OS statfs is wired in cmd/.
type DiskSpaceChecker func(path string) (int64, error)

// Engine coordinates C2-C7 under the scoped guards of C1. It is the single
// entry point for check_for_update, install_or_update_package and
// install_pwa.
type Engine struct {
	Downloader  downloader.Downloader
	Registry    Registry
	Verifier    SignatureVerifier
	Validator   PackageValidator
	FS          afero.Fs
	CertType    string
	DiskSpace   DiskSpaceChecker
	CancelReg   *CancelRegistry

	log logger.Logger
}

// NewEngine wires the collaborators together.
func NewEngine(dl downloader.Downloader, registry Registry, verifier SignatureVerifier, validator PackageValidator, fs afero.Fs, certType string, diskSpace DiskSpaceChecker) *Engine {
	return &Engine{
		Downloader: dl,
		Registry:   registry,
		Verifier:   verifier,
		Validator:  validator,
		FS:         fs,
		CertType:   certType,
		DiskSpace:  diskSpace,
		CancelReg:  NewCancelRegistry(),
		log:        logger.WithNamespace("apps"),
	}
}

// Cancel requests that the in-flight download for updateURL abort. It is
// best-effort: once Apply has begun, cancel cannot interrupt it (spec.md §5).
func (e *Engine) Cancel(updateURL string) bool {
	return e.CancelReg.Cancel(updateURL)
}

// fetchResult is the outcome of downloading an update manifest, shared by
// check_for_update and install_or_update_package (spec.md §4.5
// FetchUpdateManifest / original's get_update_manifest).
type fetchResult struct {
	stagingDir string
	data       []byte
}

func (e *Engine) fetchUpdateManifest(ctx context.Context, webappPath, updateURL string) (*fetchResult, error) {
	stagingDir := filepath.Join(webappPath, "downloading", hashURL(updateURL))
	manifestPath := filepath.Join(stagingDir, "update.webmanifest")

	if err := e.FS.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, err
	}

	e.log.Debugf("downloading %s to %s", updateURL, manifestPath)
	completion, handle := e.Downloader.Download(ctx, updateURL, manifestPath)
	e.CancelReg.Set(updateURL, handle)
	guard := NewCancelSlotGuard(e.CancelReg, updateURL)
	defer guard.Run()

	timeoutCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	if err := downloader.Await(timeoutCtx, completion); err != nil {
		if errors.Is(err, downloader.NotModified) {
			return &fetchResult{stagingDir: stagingDir}, errNotModified
		}
		if errors.Is(err, downloader.Canceled) {
			e.log.Debugf("download of %s canceled", updateURL)
			return &fetchResult{stagingDir: stagingDir}, downloader.Canceled
		}
		e.log.Errorf("downloading %s to %s failed: %s", updateURL, manifestPath, err)
		return &fetchResult{stagingDir: stagingDir}, err
	}

	data, err := afero.ReadFile(e.FS, manifestPath)
	if err != nil {
		return &fetchResult{stagingDir: stagingDir}, err
	}
	return &fetchResult{stagingDir: stagingDir, data: data}, nil
}

// CheckForUpdate implements spec.md §4.7.
func (e *Engine) CheckForUpdate(ctx context.Context, webappPath, updateURL string, isAuto bool) (*AppsObject, error) {
	app, ok := e.Registry.GetByUpdateURL(updateURL)
	if !ok {
		return nil, ErrAppNotFound
	}

	res, err := e.fetchUpdateManifest(ctx, webappPath, updateURL)
	defer e.cleanupStaging(res)
	if err != nil {
		if errors.Is(err, errNotModified) {
			return nil, nil
		}
		return nil, ErrDownloadManifestFailed
	}

	if !CompareVersionHash(app, res.data) {
		return nil, nil
	}

	obj := AppsObjectFrom(app)
	obj.AllowedAutoDownload = isAuto
	return &obj, nil
}

func (e *Engine) cleanupStaging(res *fetchResult) {
	if res == nil || res.stagingDir == "" {
		return
	}
	_ = e.FS.RemoveAll(res.stagingDir)
}

// InstallOrUpdatePackage implements the full signed-package pipeline,
// spec.md C5 / §4.5.
func (e *Engine) InstallOrUpdatePackage(ctx context.Context, webappPath, updateURL string, isUpdate bool) (*AppsObject, error) {
	// --- FetchUpdateManifest ---
	res, err := e.fetchUpdateManifest(ctx, webappPath, updateURL)
	if err != nil {
		e.cleanupStaging(res)
		if errors.Is(err, downloader.Canceled) {
			return nil, ErrCanceled
		}
		return nil, ErrDownloadManifestFailed
	}

	manifest, err := ParseManifest(res.data)
	if err != nil {
		e.cleanupStaging(res)
		return nil, ErrInvalidManifest
	}

	// --- RegisterIntent ---
	item, priorSnap, err := e.registerIntent(isUpdate, updateURL, manifest)
	if err != nil {
		e.cleanupStaging(res)
		return nil, err
	}
	stateGuard := NewAppStateGuard(e.Registry, isUpdate, priorSnap, manifest)
	defer stateGuard.Run()

	dirGuard := NewDirGuard(e.FS, res.stagingDir)
	defer dirGuard.Run()

	// --- FetchPackage ---
	updateManifest, err := ParseUpdateManifest(res.data)
	if err != nil {
		return nil, ErrInvalidManifest
	}
	if updateManifest.PackagePath == "" {
		e.log.Errorf("no package path for %s", updateURL)
		return nil, ErrInvalidManifest
	}

	available, err := e.DiskSpace(webappPath)
	if err != nil {
		return nil, fmt.Errorf("checking available disk space: %w", err)
	}
	required := updateManifest.PackagedSize * 2
	if available < required {
		e.log.Errorf("not enough disk space: need %s, have %s",
			humanize.Bytes(uint64(required)), humanize.Bytes(uint64(available)))
		return nil, ErrDiskSpaceNotEnough
	}

	zipPath := filepath.Join(res.stagingDir, "application.zip")
	if err := e.downloadPackage(ctx, updateURL, updateManifest.PackagePath, zipPath); err != nil {
		if errors.Is(err, downloader.Canceled) {
			return nil, ErrCanceled
		}
		return nil, ErrDownloadPackageFailed
	}

	// --- VerifySignature ---
	if err := e.Verifier.VerifyZip(zipPath, e.CertType); err != nil {
		e.log.Errorf("verify zip error: %s", err)
		return nil, ErrInvalidSignature
	}

	// --- ValidatePackage ---
	packaged, err := e.Validator.ValidatePackage(zipPath)
	if err != nil {
		return nil, ErrInvalidPackage
	}

	// --- CrossCheckManifests ---
	if !CompareManifests(updateManifest, packaged) {
		return nil, ErrInvalidManifest
	}

	// --- Apply ---
	if err := e.Registry.ApplyDownload(item, res.stagingDir, packaged, webappPath, isUpdate); err != nil {
		return nil, err
	}

	// --- Commit ---
	dirGuard.Disarm()
	stateGuard.Disarm()
	obj := AppsObjectFrom(item)
	return &obj, nil
}

func (e *Engine) downloadPackage(ctx context.Context, updateURL, packageURL, dest string) error {
	e.log.Debugf("downloading %s to %s", packageURL, dest)
	completion, handle := e.Downloader.Download(ctx, packageURL, dest)
	e.CancelReg.Set(updateURL, handle)
	guard := NewCancelSlotGuard(e.CancelReg, updateURL)
	defer guard.Run()

	timeoutCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	if err := downloader.Await(timeoutCtx, completion); err != nil {
		if errors.Is(err, downloader.Canceled) {
			e.log.Debugf("download of %s canceled", packageURL)
			return err
		}
		e.log.Errorf("downloading %s to %s failed: %s", packageURL, dest, err)
		return err
	}
	return nil
}

// registerIntent implements spec.md §4.5 RegisterIntent. It returns the
// live AppItem to mutate through the rest of the pipeline and the prior
// snapshot the AppStateGuard should restore on failure.
func (e *Engine) registerIntent(isUpdate bool, updateURL string, manifest *Manifest) (*AppItem, *AppItem, error) {
	var item *AppItem

	if isUpdate {
		existing, ok := e.Registry.GetByUpdateURL(updateURL)
		if !ok {
			return nil, nil, ErrAppNotFound
		}
		item = existing.Clone()
	} else {
		name, err := e.Registry.Uniquify(manifest.Name, updateURL)
		if err != nil {
			return nil, nil, err
		}
		item = &AppItem{Name: name, UpdateURL: updateURL, Removable: true}
	}

	prior := item.Clone()

	if isUpdate {
		item.UpdateState = Updating
	} else {
		item.InstallState = Installing
	}

	if manifest.Version != "" {
		item.Version = manifest.Version
	}

	if err := e.Registry.SaveApp(isUpdate, item, manifest); err != nil {
		return nil, nil, err
	}
	e.Registry.BroadcastInstalling(isUpdate, AppsObjectFrom(item))

	return item, prior, nil
}

// BroadcastDownloadFailed implements spec.md §4.8.
func (e *Engine) BroadcastDownloadFailed(updateURL string, reason error, maybeApp *AppsObject) {
	var obj AppsObject
	if maybeApp != nil {
		obj = *maybeApp
	} else {
		obj = AppsObject{UpdateURL: updateURL}
	}

	if !errors.Is(reason, ErrCanceled) {
		e.log.Errorf("broadcast event: app download failed: %s", reason)
	} else {
		e.log.Debugf("broadcast event: app download canceled")
	}

	e.Registry.Broadcaster().BroadcastAppDownloadFailed(DownloadFailedReason{
		AppsObject: obj,
		Reason:     reason,
	})
}
