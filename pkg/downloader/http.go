package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cozy/apps-engine/pkg/logger"
)

// HTTPDownloader is the default Downloader, backed by net/http. It streams
// the response body to dest, creating parent directories as needed.
type HTTPDownloader struct {
	Client *http.Client
	log    logger.Logger
}

// NewHTTPDownloader builds an HTTPDownloader with a sane default client.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		Client: &http.Client{},
		log:    logger.WithNamespace("downloader"),
	}
}

type cancelHandle struct {
	cancel context.CancelFunc
}

func (h *cancelHandle) Cancel() { h.cancel() }

// Download implements Downloader. The returned completion channel is
// buffered so the background goroutine never blocks on a caller that
// stopped listening.
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) (<-chan error, Handle) {
	runCtx, cancel := context.WithCancel(ctx)
	completion := make(chan error, 1)
	handle := &cancelHandle{cancel: cancel}

	go func() {
		completion <- d.run(runCtx, url, dest)
	}()

	return completion, handle
}

func (d *HTTPDownloader) run(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return NewOtherError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewOtherError(err.Error())
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Canceled
		}
		return NewOtherError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(fmt.Sprintf("%d", resp.StatusCode))
	}

	out, err := os.Create(dest)
	if err != nil {
		return NewOtherError(err.Error())
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		if ctx.Err() != nil {
			_ = os.Remove(dest)
			return Canceled
		}
		return NewOtherError(err.Error())
	}

	return nil
}
