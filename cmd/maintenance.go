package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cozy/apps-engine/pkg/apps"
	"github.com/cozy/apps-engine/pkg/config"
	"github.com/cozy/apps-engine/pkg/downloader"
)

var flagUpdateURL string
var flagIsAuto bool
var flagIsUpdate bool
var flagIsPWA bool
var flagStagingMaxAge time.Duration

func newEngine(cfg *config.Config, fs afero.Fs) *apps.Engine {
	registry := apps.NewMemRegistry(fs, 443)
	return apps.NewEngine(
		downloader.NewHTTPDownloader(),
		registry,
		apps.NoopVerifier{},
		apps.ZipPackageValidator{},
		fs,
		cfg.CertType,
		apps.RealDiskSpace,
	)
}

var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Check whether an update is available for the given --update-url",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfigFile)
		if err != nil {
			return err
		}
		engine := newEngine(cfg, afero.NewOsFs())

		obj, err := engine.HandleCheckForUpdate(context.Background(), cfg.WebappPath(), flagUpdateURL, flagIsAuto)
		if err != nil {
			return err
		}
		if obj == nil {
			fmt.Println("no update available")
			return nil
		}
		fmt.Printf("update available: %s -> %s\n", obj.Name, obj.Version)
		return nil
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or update the app at --update-url",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfigFile)
		if err != nil {
			return err
		}
		engine := newEngine(cfg, afero.NewOsFs())

		var obj *apps.AppsObject
		if flagIsPWA {
			obj, err = engine.HandleInstallPWA(context.Background(), cfg.WebappPath(), flagUpdateURL)
		} else {
			obj, err = engine.HandleInstallOrUpdatePackage(context.Background(), cfg.WebappPath(), flagUpdateURL, flagIsUpdate)
		}
		if err != nil {
			return err
		}
		fmt.Printf("installed: %s (%s)\n", obj.Name, obj.Version)
		return nil
	},
}

var gcStagingCmd = &cobra.Command{
	Use:   "gc-staging",
	Short: "Remove orphaned staging directories under downloading/",
	Long: `Some pipeline runs leave their downloading/<hash> directory behind:
a committed signed-package install keeps it, and a failed PWA install has
no directory guard. This command removes every directory under
downloading/ whose modification time is older than --max-age; it does not
check whether a running pipeline is still using the directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfigFile)
		if err != nil {
			return err
		}

		fs := afero.NewOsFs()
		downloadingDir := filepath.Join(cfg.WebappPath(), "downloading")
		entries, err := afero.ReadDir(fs, downloadingDir)
		if os.IsNotExist(err) {
			fmt.Println("nothing to collect")
			return nil
		}
		if err != nil {
			return err
		}

		var errs error
		removed := 0
		cutoff := time.Now().Add(-flagStagingMaxAge)
		for _, entry := range entries {
			if !entry.IsDir() || entry.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(downloadingDir, entry.Name())
			if err := fs.RemoveAll(path); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			removed++
		}

		fmt.Printf("removed %d orphaned staging directories\n", removed)
		return errs
	},
}

func init() {
	for _, c := range []*cobra.Command{checkUpdateCmd, installCmd} {
		c.Flags().StringVar(&flagUpdateURL, "update-url", "", "the app's update_url")
		_ = c.MarkFlagRequired("update-url")
	}
	checkUpdateCmd.Flags().BoolVar(&flagIsAuto, "auto", false, "mark the check as an automatic check")
	installCmd.Flags().BoolVar(&flagIsUpdate, "update", false, "this is an update of an already-installed app")
	installCmd.Flags().BoolVar(&flagIsPWA, "pwa", false, "install as a PWA (manifest + icons, no signed package)")

	gcStagingCmd.Flags().DurationVar(&flagStagingMaxAge, "max-age", time.Hour, "remove staging directories older than this")

	RootCmd.AddCommand(checkUpdateCmd, installCmd, gcStagingCmd)
}
