package apps

import (
	semver "github.com/Masterminds/semver/v3"
)

// CompareVersionHash implements the update decider (spec.md C4): given the
// registered app and the bytes of a freshly fetched update manifest,
// decide whether an update is available.
//
// Decision rule, in order:
//  1. Parse manifestData as an UpdateManifest; on failure return false.
//  2. If either version is empty, fall back to manifest-hash comparison.
//  3. Otherwise compare dotted versions; an unparseable version keeps the
//     step-2 default of false (spec.md §4.4).
func CompareVersionHash(app *AppItem, manifestData []byte) bool {
	manifest, err := ParseUpdateManifest(manifestData)
	if err != nil {
		return false
	}

	isAvailable := false

	if app.Version == "" || manifest.Version == "" {
		hash := manifestHash(manifestData)
		if hash != app.ManifestHash {
			isAvailable = true
		}
	}

	if app.Version != "" && manifest.Version != "" {
		manifestVersion, errM := semver.NewVersion(manifest.Version)
		appVersion, errA := semver.NewVersion(app.Version)
		if errM == nil && errA == nil {
			isAvailable = manifestVersion.GreaterThan(appVersion)
		}
	}

	return isAvailable
}
