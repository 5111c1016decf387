package apps

import (
	"archive/zip"
	"fmt"
	"io"
)

// NoopVerifier is a stand-in SignatureVerifier for environments without
// the real certificate chain wired in (spec.md §1 names the ZIP signature
// verifier an assumed external collaborator). It is not a security
// control; production deployments must supply a real SignatureVerifier.
type NoopVerifier struct{}

// VerifyZip implements SignatureVerifier by doing nothing but checking the
// archive opens cleanly.
func (NoopVerifier) VerifyZip(zipPath, certType string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	return r.Close()
}

// ZipPackageValidator implements PackageValidator by reading
// manifest.webmanifest out of the root of the zip archive.
type ZipPackageValidator struct{}

// ValidatePackage implements PackageValidator.
func (ZipPackageValidator) ValidatePackage(zipPath string) (*Manifest, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "manifest.webmanifest" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open manifest in zip: %w", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read manifest in zip: %w", err)
		}
		return ParseManifest(data)
	}
	return nil, fmt.Errorf("manifest.webmanifest not found in package")
}
