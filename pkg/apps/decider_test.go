package apps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersionHash(t *testing.T) {
	t.Run("newer semver is available", func(t *testing.T) {
		app := &AppItem{Version: "1.0.0"}
		data := []byte(`{"version":"1.0.1","package_path":"app.zip"}`)
		assert.True(t, CompareVersionHash(app, data))
	})

	t.Run("same semver is not available", func(t *testing.T) {
		app := &AppItem{Version: "1.0.1"}
		data := []byte(`{"version":"1.0.1","package_path":"app.zip"}`)
		assert.False(t, CompareVersionHash(app, data))
	})

	t.Run("older semver is not available", func(t *testing.T) {
		app := &AppItem{Version: "1.0.2"}
		data := []byte(`{"version":"1.0.1","package_path":"app.zip"}`)
		assert.False(t, CompareVersionHash(app, data))
	})

	t.Run("missing versions fall back to hash comparison", func(t *testing.T) {
		data := []byte(`{"package_path":"app.zip"}`)
		app := &AppItem{ManifestHash: manifestHash(data)}
		assert.False(t, CompareVersionHash(app, data))

		other := &AppItem{ManifestHash: "deadbeef"}
		assert.True(t, CompareVersionHash(other, data))
	})

	t.Run("app with no version but manifest has one falls back to hash", func(t *testing.T) {
		data := []byte(`{"version":"1.0.0","package_path":"app.zip"}`)
		app := &AppItem{ManifestHash: manifestHash(data)}
		assert.False(t, CompareVersionHash(app, data))
	})

	t.Run("unparsable update manifest is never an update", func(t *testing.T) {
		app := &AppItem{Version: "1.0.0"}
		assert.False(t, CompareVersionHash(app, []byte("not json")))
	})

	t.Run("unparseable semver keeps hash-comparison default of false", func(t *testing.T) {
		app := &AppItem{Version: "not-a-version"}
		data := []byte(`{"version":"also-not-a-version","package_path":"app.zip"}`)
		assert.False(t, CompareVersionHash(app, data))
	})
}
