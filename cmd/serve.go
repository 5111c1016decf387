package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cozy/apps-engine/pkg/apps"
	"github.com/cozy/apps-engine/pkg/config"
	"github.com/cozy/apps-engine/pkg/downloader"
	"github.com/cozy/apps-engine/pkg/logger"
)

var flagBindAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the apps engine's event websocket and waits for requests",
	Long: `Starts a websocket endpoint that lifecycle events (app_installing,
app_download_failed, ...) are broadcast on, and keeps the engine's
background collaborators (downloader, cancellation registry, registry)
alive for an embedding process to drive through the Go API.

The SIGINT signal triggers a graceful stop of the HTTP server, which is
given up to 30 seconds to finish open requests before the process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfigFile)
		if err != nil {
			return err
		}

		fs := afero.NewOsFs()
		registry := apps.NewMemRegistry(fs, 443)
		engine := apps.NewEngine(
			downloader.NewHTTPDownloader(),
			registry,
			apps.NoopVerifier{},
			apps.ZipPackageValidator{},
			fs,
			cfg.CertType,
			apps.RealDiskSpace,
		)
		_ = engine // embedding callers reach it via apps.NewEngine directly; here we just keep it alive

		mux := http.NewServeMux()
		mux.Handle("/events", registry.Hub())

		server := &http.Server{Addr: flagBindAddr, Handler: mux}

		log := logger.WithNamespace("cmd")
		errs := make(chan error, 1)
		go func() {
			log.Infof("listening on %s", flagBindAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errs <- err
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)

		select {
		case err := <-errs:
			return err
		case <-sigs:
			log.Infof("received interrupt signal, shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&flagBindAddr, "bind", "127.0.0.1:8080", "address to bind the event websocket on")
	RootCmd.AddCommand(serveCmd)
}
