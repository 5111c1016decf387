// Package apps implements the application install & update engine: the
// download/verify/apply state machine for signed-package apps, the PWA
// install flow, the cancellation registry, and the update decider.
package apps

import "encoding/json"

// InstallState is the lifecycle state of an AppItem's install process.
type InstallState int

const (
	// Pending means the app is known but no install has started.
	Pending InstallState = iota
	// Installing means a pipeline run is currently staging the app.
	Installing
	// Installed means the app is fully applied and usable.
	Installed
)

func (s InstallState) String() string {
	switch s {
	case Installing:
		return "installing"
	case Installed:
		return "installed"
	default:
		return "pending"
	}
}

// UpdateState is the lifecycle state of an AppItem's update process.
type UpdateState int

const (
	// Idle means no update is available or in progress.
	Idle UpdateState = iota
	// Available means check_for_update found a newer manifest.
	Available
	// Updating means a pipeline run is currently applying an update.
	Updating
	// UpdatePending is acknowledged but unused in this version (spec.md
	// Non-goals: two-phase ready-to-apply prompts are not implemented).
	UpdatePending
)

func (s UpdateState) String() string {
	switch s {
	case Available:
		return "available"
	case Updating:
		return "updating"
	case UpdatePending:
		return "pending"
	default:
		return "idle"
	}
}

// AppItem is the registry's record for an installed (or installing) app.
// See spec.md §3 for the field invariants.
type AppItem struct {
	Name         string
	UpdateURL    string
	ManifestURL  string
	Version      string
	ManifestHash string
	InstallState InstallState
	UpdateState  UpdateState
	IsPWA        bool
	Removable    bool
}

// Clone returns a deep copy, used by the cleanup guards to snapshot an
// AppItem before a pipeline run mutates it.
func (a *AppItem) Clone() *AppItem {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// AppsObject is the value returned to callers of the three entry points;
// it mirrors an AppItem plus the one field (AllowedAutoDownload) that only
// makes sense in the context of a check_for_update response.
type AppsObject struct {
	Name                string
	UpdateURL           string
	ManifestURL         string
	Version             string
	InstallState        InstallState
	UpdateState         UpdateState
	IsPWA               bool
	Removable           bool
	AllowedAutoDownload bool
}

// AppsObjectFrom builds an AppsObject view from an AppItem.
func AppsObjectFrom(a *AppItem) AppsObject {
	return AppsObject{
		Name:         a.Name,
		UpdateURL:    a.UpdateURL,
		ManifestURL:  a.ManifestURL,
		Version:      a.Version,
		InstallState: a.InstallState,
		UpdateState:  a.UpdateState,
		IsPWA:        a.IsPWA,
		Removable:    a.Removable,
	}
}

// Icon is one entry of a Manifest's icons array.
type Icon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Terms mirrors the manifest's terms-of-service block, carried through
// unused here (kept for parity with the richer manifest model a full app
// store would have).
type Terms struct {
	Version string `json:"version,omitempty"`
}

// Manifest is the app's primary manifest (name, version, start_url, icons,
// permissions). Manifest and UpdateManifest are two views over the same
// parsed JSON document rather than a class hierarchy (spec.md §9).
type Manifest struct {
	raw json.RawMessage

	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	StartURL    string                 `json:"start_url"`
	Icons       []Icon                 `json:"icons"`
	Type        string                 `json:"type,omitempty"`
	Permissions map[string]interface{} `json:"permissions,omitempty"`
	Role        string                 `json:"role,omitempty"`
	Terms       Terms                  `json:"terms,omitempty"`
}

// ParseManifest decodes raw JSON bytes into a Manifest, keeping the raw
// bytes around so Bytes returns them unchanged (used for MD5 hashing).
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	m.raw = data
	return m, nil
}

// Bytes returns the exact bytes this Manifest was parsed from, or
// re-marshals itself if it was constructed in memory (PWA icon rewrite).
func (m *Manifest) Bytes() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	return json.MarshalIndent(m, "", "  ")
}

// UpdateManifest is the server-hosted document describing a candidate
// update: version, package_path, packaged_size, plus the fields mirrored
// from Manifest used for cross-checking against the in-zip manifest.
type UpdateManifest struct {
	Version       string                 `json:"version"`
	PackagePath   string                 `json:"package_path"`
	PackagedSize  int64                  `json:"packaged_size"`
	Name          string                 `json:"name"`
	Type          string                 `json:"type,omitempty"`
	Role          string                 `json:"role,omitempty"`
	Permissions   map[string]interface{} `json:"permissions,omitempty"`
}

// ParseUpdateManifest decodes the same file FetchUpdateManifest downloaded,
// viewed as an UpdateManifest. The spec requires this second parse to
// succeed independently of the first Manifest parse (spec.md §4.5 tie-break).
func ParseUpdateManifest(data []byte) (*UpdateManifest, error) {
	um := &UpdateManifest{}
	if err := json.Unmarshal(data, um); err != nil {
		return nil, err
	}
	return um, nil
}

// CompareManifests is the domain-specific cross-check of spec.md's
// CrossCheckManifests step: the update manifest's mirrored fields must
// match the manifest unpacked from the verified zip.
func CompareManifests(update *UpdateManifest, packaged *Manifest) bool {
	if update.Name != packaged.Name {
		return false
	}
	if update.Version != packaged.Version {
		return false
	}
	if update.Role != packaged.Role {
		return false
	}
	return permissionsEqual(update.Permissions, packaged.Permissions)
}

func permissionsEqual(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
