package cmd

import (
	"fmt"

	"github.com/asset-toolbox/assay/internal/version"
	"github.com/spf13/cobra"
)

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print assay version along with the cloud asset SDK version information.",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf(
			"commit: %s\nbranch: %s\ngit summary: %s\nbuildDate: %s\nversion: %s\nGo version: %s\nasset SDK version: %s\n",
			version.GitCommit, version.GitBranch, version.GitSummary, version.BuildDate, version.AppVersion, version.GoVersion, version.AssetSDKVersion)
	},
}

func init() {
	rootCmd.AddCommand(cmdVersion)
}
