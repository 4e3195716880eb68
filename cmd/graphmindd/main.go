// Command graphmindd drives a graphmind engine from the command line: run
// the tick loop, inject stimulus, and inspect bitemporal history.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/pkg/graphmind"
)

var (
	verbose    bool
	storePath  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "graphmindd",
	Short: "graphmindd - consciousness graph runtime",
	Long: `graphmindd drives a bitemporal, stride-diffusion graph runtime:
a versioned property graph whose nodes carry activation energy that
spreads, decays, and self-regulates toward a critical operating point.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return clog.Init(false, verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		clog.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "graphmind.db", "path to the sqlite graph store")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (hot-reloaded if set)")

	rootCmd.AddCommand(runCmd, injectCmd, snapshotCmd, historyCmd, asOfCmd, reconstructCmd)
}

func openEngine() (*graphmind.Engine, error) {
	return graphmind.Open(graphmind.Options{StorePath: storePath, ConfigPath: configPath})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
