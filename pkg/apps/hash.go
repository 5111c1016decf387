package apps

import (
	"crypto/md5" //nolint:gosec // spec.md mandates MD5 for manifest-hash comparison, not for security.
	"encoding/hex"
	"hash/fnv"
	"strconv"
)

// hashURL is the 64-bit non-cryptographic hash used to name scratch
// directories under downloading/ (spec.md §6).
func hashURL(url string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(url))
	return strconv.FormatUint(h.Sum64(), 10)
}

// manifestHash is the hex, lowercase, 32-char MD5 of the manifest file
// bytes used by the update decider (spec.md §4.4) and stored on AppItem.
func manifestHash(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
