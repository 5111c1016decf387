package apps

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirGuardRemovesUnlessDisarmed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/staging/a", 0o755))

	guard := NewDirGuard(fs, "/staging/a")
	guard.Run()

	exists, err := afero.DirExists(fs, "/staging/a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDirGuardDisarmed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/staging/b", 0o755))

	guard := NewDirGuard(fs, "/staging/b")
	guard.Disarm()
	guard.Run()

	exists, err := afero.DirExists(fs, "/staging/b")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAppStateGuardRestoresUpdate(t *testing.T) {
	fs := afero.NewMemMapFs()
	registry := NewMemRegistry(fs, 443)

	prior := &AppItem{Name: "demo", UpdateURL: "https://example.test/m", Version: "1.0.0", UpdateState: Idle}
	require.NoError(t, registry.SaveApp(true, prior.Clone(), &Manifest{}))

	guard := NewAppStateGuard(registry, true, prior, &Manifest{})
	guard.Run()

	item, ok := registry.GetByUpdateURL(prior.UpdateURL)
	require.True(t, ok)
	assert.Equal(t, Available, item.UpdateState)
	assert.Equal(t, "1.0.0", item.Version)
}

func TestAppStateGuardRemovesNewInstall(t *testing.T) {
	fs := afero.NewMemMapFs()
	registry := NewMemRegistry(fs, 443)

	prior := &AppItem{Name: "demo", UpdateURL: "https://example.test/m"}
	require.NoError(t, registry.SaveApp(false, prior.Clone(), &Manifest{}))

	guard := NewAppStateGuard(registry, false, prior, &Manifest{})
	guard.Run()

	_, ok := registry.GetByUpdateURL(prior.UpdateURL)
	assert.False(t, ok)
}

func TestAppStateGuardDisarmed(t *testing.T) {
	fs := afero.NewMemMapFs()
	registry := NewMemRegistry(fs, 443)

	prior := &AppItem{Name: "demo", UpdateURL: "https://example.test/m"}
	require.NoError(t, registry.SaveApp(false, prior.Clone(), &Manifest{}))

	guard := NewAppStateGuard(registry, false, prior, &Manifest{})
	guard.Disarm()
	guard.Run()

	_, ok := registry.GetByUpdateURL(prior.UpdateURL)
	assert.True(t, ok, "a disarmed guard must not touch the committed state")
}
