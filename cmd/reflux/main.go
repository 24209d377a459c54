package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┬  ┬ ┬─┐ ┬
  ├┬┘├┤ ├┤ │  │ │┌┴┬┘
  ┴└─└─┘└  ┴─┘└─┘┴ └─
`

func main() {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:   "reflux",
		Short: "Reactive runtime and keyed tree reconciler",
		Long: `reflux drives a reactive state graph and a keyed tree reconciler.

Commands:
  • demo   run a scripted reactive board and print host operations
  • diff   reconcile two keyed lists and show the minimal edits
  • lis    print the longest increasing subsequence of a sequence
  • serve  stream a live board to browsers over WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to reflux.json (default ./reflux.json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		demoCmd(&opts),
		diffCmd(),
		lisCmd(),
		serveCmd(&opts),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var rerr *rfxerrors.Error
		if errors.As(err, &rerr) {
			fmt.Fprint(os.Stderr, rerr.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// printBanner prints the reflux ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
