package apps

import "context"

// HandleCheckForUpdate wraps CheckForUpdate with the same
// broadcast-on-failure behavior the original request-handling layer
// applies to every entry point (spec.md §4.8, supplemented per the
// original's single call site for broadcast_download_failed).
func (e *Engine) HandleCheckForUpdate(ctx context.Context, webappPath, updateURL string, isAuto bool) (*AppsObject, error) {
	obj, err := e.CheckForUpdate(ctx, webappPath, updateURL, isAuto)
	if err != nil {
		e.BroadcastDownloadFailed(updateURL, err, nil)
	}
	return obj, err
}

// HandleInstallOrUpdatePackage wraps InstallOrUpdatePackage, broadcasting
// app_download_failed on any pipeline error so a caller driving the engine
// directly (without its own request layer) still gets the event.
func (e *Engine) HandleInstallOrUpdatePackage(ctx context.Context, webappPath, updateURL string, isUpdate bool) (*AppsObject, error) {
	obj, err := e.InstallOrUpdatePackage(ctx, webappPath, updateURL, isUpdate)
	if err != nil {
		e.BroadcastDownloadFailed(updateURL, err, nil)
	}
	return obj, err
}

// HandleInstallPWA wraps InstallPWA the same way.
func (e *Engine) HandleInstallPWA(ctx context.Context, webappPath, updateURL string) (*AppsObject, error) {
	obj, err := e.InstallPWA(ctx, webappPath, updateURL)
	if err != nil {
		e.BroadcastDownloadFailed(updateURL, err, nil)
	}
	return obj, err
}
