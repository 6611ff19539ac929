package commands

import (
	"context"
	"fmt"
	"github-retriever/internal/components/telemetry"
	"os"

	"github.com/spf13/cobra"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "github-retriever",
	Short: "github-retriever collects repository information that is not available through the GitHub API.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(os.Stderr, *verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().Bool("verbose", false, "Log every request and extraction step.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
