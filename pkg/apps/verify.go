package apps

// SignatureVerifier checks the signed ZIP package's signature. This is the
// external collaborator spec.md §1 Non-goals name as "assumed" — the
// engine only needs the contract, not a cryptographic implementation.
type SignatureVerifier interface {
	VerifyZip(zipPath, certType string) error
}

// PackageValidator inspects a verified ZIP package's contents and returns
// the Manifest found inside it. Also assumed external per spec.md §1.
type PackageValidator interface {
	ValidatePackage(zipPath string) (*Manifest, error)
}
