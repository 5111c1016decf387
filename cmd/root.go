// Package cmd wires the apps engine into a standalone CLI. The IPC/RPC
// surface a real device would expose to the rest of the system is out of
// scope (spec.md §1); this package only provides a thin operator-facing
// shim over the in-scope engine API (serve + maintenance subcommands).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cozy/apps-engine/pkg/logger"
)

var flagConfigFile string
var flagLogLevel string

// RootCmd is the entry point for the apps-engine CLI.
var RootCmd = &cobra.Command{
	Use:   "apps-engine",
	Short: "Application Install & Update Engine",
	Long: `apps-engine downloads, verifies and applies web-app package
updates, and caches progressive web app (PWA) manifests and icons, into
a device's app registry.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.SetLevel(flagLogLevel)
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&flagConfigFile, "config", "", "path to the configuration file")
	flags.StringVar(&flagLogLevel, "log-level", "info", "define the log level")
	checkNoErr(viper.BindPFlag("log-level", flags.Lookup("log-level")))
}

func checkNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func errPrintfln(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Execute runs the root command.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		errPrintfln("%s", err)
		return err
	}
	return nil
}
