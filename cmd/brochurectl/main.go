// Command brochurectl does the one-off chores of running the site: minting
// secrets, adding admins, checking configuration and loading sample content.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/brochure"
	"github.com/corvidlabs/brochure/internal"
)

// osExit is swapped out in tests.
var osExit = os.Exit

func newRootCmd() *cobra.Command {
	var slogLevel string

	cmd := &cobra.Command{
		Use:     "brochurectl",
		Short:   "Administrative tasks for the brochure site server.",
		Version: brochure.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			internal.InitSlog(slogLevel)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&slogLevel, "slog-level", "WARN", "logging level")

	cmd.AddCommand(
		newSecretCmd(),
		newUserCmd(),
		newConfigCmd(),
		newSeedCmd(),
	)

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(1)
	}
}
