package apps

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallPWA(t *testing.T) {
	fs := afero.NewMemMapFs()
	webappPath := "/webapp"
	dl := newFakeDownloader(fs)
	registry := NewMemRegistry(fs, 443)
	engine := NewEngine(dl, registry, NoopVerifier{}, ZipPackageValidator{}, fs, "dev", unlimitedDiskSpace)

	const updateURL = "https://example.test/app/manifest.webmanifest"
	manifestJSON := `{
		"name": "demo-pwa",
		"start_url": "/index.html",
		"icons": [
			{"src": "/icons/1.png", "sizes": "48x48"},
			{"src": "/icons/2.png", "sizes": "96x96"},
			{"src": "/icons/3.png", "sizes": "128x128"},
			{"src": "/icons/4.png", "sizes": "512x512"}
		]
	}`
	dl.serve(updateURL, []byte(manifestJSON))
	dl.serve("https://example.test/icons/1.png", []byte("icon1"))
	dl.serve("https://example.test/icons/2.png", []byte("icon2"))
	dl.serve("https://example.test/icons/3.png", []byte("icon3"))
	dl.serve("https://example.test/icons/4.png", []byte("icon4"))

	obj, err := engine.InstallPWA(context.Background(), webappPath, updateURL)
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "demo-pwa", obj.Name)
	assert.True(t, obj.IsPWA)
	assert.Equal(t, Installed, obj.InstallState)

	item, ok := registry.GetByUpdateURL(updateURL)
	require.True(t, ok)
	assert.True(t, item.IsPWA)

	cachedManifestPath := webappPath + "/cached/demo-pwa/manifest.webmanifest"
	data, err := afero.ReadFile(fs, cachedManifestPath)
	require.NoError(t, err)

	cached, err := ParseManifest(data)
	require.NoError(t, err)
	assert.NotEqual(t, "/index.html", cached.StartURL, "start_url must be rewritten to an absolute URL")
	assert.Contains(t, cached.StartURL, "example.test")

	for _, icon := range cached.Icons {
		assert.Contains(t, icon.Src, "demo-pwa.localhost", "icon src must be rewritten to the cached manifest's host")
	}

	for _, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
		exists, err := afero.Exists(fs, webappPath+"/cached/demo-pwa/icons/"+name)
		require.NoError(t, err)
		assert.True(t, exists, "icon %s must be cached", name)
	}
}

func TestInstallPWAOneIconFailsButInstallSucceeds(t *testing.T) {
	fs := afero.NewMemMapFs()
	webappPath := "/webapp"
	dl := newFakeDownloader(fs)
	registry := NewMemRegistry(fs, 443)
	engine := NewEngine(dl, registry, NoopVerifier{}, ZipPackageValidator{}, fs, "dev", unlimitedDiskSpace)

	const updateURL = "https://example.test/app/manifest.webmanifest"
	manifestJSON := `{
		"name": "demo-pwa-2",
		"start_url": "/index.html",
		"icons": [
			{"src": "/icons/ok.png", "sizes": "48x48"},
			{"src": "/icons/missing.png", "sizes": "96x96"}
		]
	}`
	dl.serve(updateURL, []byte(manifestJSON))
	dl.serve("https://example.test/icons/ok.png", []byte("ok"))
	dl.fail("https://example.test/icons/missing.png", assert.AnError)

	obj, err := engine.InstallPWA(context.Background(), webappPath, updateURL)
	require.NoError(t, err, "a single icon failure must not fail the whole install")
	require.NotNil(t, obj)
}
