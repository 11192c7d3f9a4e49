package cli

import (
	"github.com/spf13/cobra"
	"github.com/textsubs/subconv/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subconv",
	Short: "Convert between SubRip and SubStation subtitle files",
	Long: `Subconv converts subtitle files between SubRip (.srt),
SubStation Alpha (.ssa/.ass) and MPL2 formats.

Styling carried by SubStation override tags is translated to the HTML
subset SubRip supports, and back.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
