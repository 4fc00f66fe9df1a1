package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/asset-toolbox/assay/internal/publish"
	"github.com/spf13/cobra"
)

// diff two snapshot files
var cmdDiff = &cobra.Command{
	Use:   "diff <snapshot file> <snapshot file>",
	Short: "Compare two snapshot files written by the file sink and print the record changes",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		current, err := publish.ReadSnapshotFile(args[0])
		if err != nil {
			log.Fatal(err)
		}

		newer, err := publish.ReadSnapshotFile(args[1])
		if err != nil {
			log.Fatal(err)
		}

		snapshotDiff, err := current.Diff(newer)
		if err != nil {
			log.Fatal(err)
		}

		out, err := json.MarshalIndent(snapshotDiff, "", " ")
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(cmdDiff)
}
