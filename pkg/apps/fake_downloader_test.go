package apps

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/cozy/apps-engine/pkg/downloader"
)

// fakeDownloader is a Downloader test double: it serves canned bytes or
// errors per URL and never touches the network, as spec.md §9's
// testability note requires of the real Downloader contract.
type fakeDownloader struct {
	fs afero.Fs

	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	blocked   map[string]bool
}

func newFakeDownloader(fs afero.Fs) *fakeDownloader {
	return &fakeDownloader{
		fs:        fs,
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
		blocked:   make(map[string]bool),
	}
}

func (d *fakeDownloader) serve(url string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responses[url] = data
}

func (d *fakeDownloader) fail(url string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[url] = err
}

func (d *fakeDownloader) block(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocked[url] = true
}

type fakeHandle struct {
	cancel func()
}

func (h *fakeHandle) Cancel() { h.cancel() }

func (d *fakeDownloader) Download(ctx context.Context, url, dest string) (<-chan error, downloader.Handle) {
	completion := make(chan error, 1)

	d.mu.Lock()
	blocked := d.blocked[url]
	err, hasErr := d.errs[url]
	data := d.responses[url]
	d.mu.Unlock()

	if blocked {
		handle := &fakeHandle{cancel: func() {
			completion <- downloader.Canceled
		}}
		return completion, handle
	}

	handle := &fakeHandle{cancel: func() {}}

	if hasErr {
		completion <- err
		return completion, handle
	}

	if err := d.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		completion <- downloader.NewOtherError(err.Error())
		return completion, handle
	}
	if err := afero.WriteFile(d.fs, dest, data, 0o644); err != nil {
		completion <- downloader.NewOtherError(err.Error())
		return completion, handle
	}
	completion <- nil
	return completion, handle
}
