package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "packdeps",
		Short: "Check package dependency bounds against a Hackage-style index",
		Long: `Packdeps builds the newest-version table of a package index and answers
dependency-compatibility questions over it:

  - which dependency bounds of a package reject the newest available
    versions of their targets
  - which packages depend, directly or transitively, on a given package
  - substring search over package authors, maintainers and names

The index is found through the local cabal configuration, or passed
explicitly with --index.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewDeepDepsCmd())
	rootCmd.AddCommand(NewReversesCmd())
	rootCmd.AddCommand(NewSearchCmd())
	rootCmd.AddCommand(NewWatchCmd())

	return rootCmd
}
