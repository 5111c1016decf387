package apps

import "errors"

// AppsServiceError is the error enumeration surfaced to callers of the
// three entry points (spec.md §6).
var (
	ErrAppNotFound            = errors.New("app not found")
	ErrDownloadManifestFailed = errors.New("failed to download update manifest")
	ErrDownloadPackageFailed  = errors.New("failed to download package")
	ErrCanceled               = errors.New("operation canceled")
	ErrInvalidManifest        = errors.New("invalid manifest")
	ErrInvalidPackage         = errors.New("invalid package")
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrInvalidStartURL        = errors.New("invalid start url")
	ErrDiskSpaceNotEnough     = errors.New("not enough disk space")

	// errNotModified is internal: check_for_update turns it into (nil,
	// nil); install_or_update_package turns it into
	// ErrDownloadManifestFailed per spec.md §4.5 & §7.
	errNotModified = errors.New("not modified")
)
