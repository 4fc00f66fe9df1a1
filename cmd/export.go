package cmd

import (
	"log"
	"time"

	"github.com/asset-toolbox/assay/pkg/cai"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

var (
	exportScope       string
	exportAssetTypes  []string
	exportContentType string
	exportGcsURI      string
	exportBqDataset   string
	exportBqTable     string
	exportBqForce     bool

	// exportTimeout bounds the export long running operation wait.
	exportTimeout time.Duration
)

// export inventory command, blocks until the export operation completes.
var cmdExport = &cobra.Command{
	Use:   "export",
	Short: "Export the asset inventory of an organization, folder or project to GCS or BigQuery",
	Run: func(cmd *cobra.Command, _ []string) {
		contentType, err := cai.ParseContentType(exportContentType)
		if err != nil {
			log.Fatal(errors.Wrap(errParseCLIParam, err.Error()))
		}

		assay, client, err := newFacadeClient(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		defer client.Close()

		// execution timeout
		ctx, cancelFunc := context.WithTimeout(cmd.Context(), exportTimeout)
		defer cancelFunc()

		resp, err := client.Export(ctx, &cai.ExportParams{
			Scope:           exportScope,
			AssetTypes:      exportAssetTypes,
			ContentType:     contentType,
			GcsURI:          exportGcsURI,
			BigQueryDataset: exportBqDataset,
			BigQueryTable:   exportBqTable,
			BigQueryForce:   exportBqForce,
		})
		if err != nil {
			log.Fatal(err)
		}

		assay.Logger.WithFields(logrus.Fields{
			"scope":     exportScope,
			"read.time": resp.GetReadTime().AsTime(),
		}).Info("export complete")
	},
}

// install command flags
func init() {
	cmdExport.PersistentFlags().StringVar(&exportScope, "scope", "", "organization, folder or project to export - organizations/N, folders/N, projects/ID")
	cmdExport.PersistentFlags().StringSliceVar(&exportAssetTypes, "asset-types", nil, "limit the export to the given comma separated asset types")
	cmdExport.PersistentFlags().StringVar(&exportContentType, "content-type", "", "asset content exported - resource, iam-policy, org-policy, access-policy, os-inventory, relationship")
	cmdExport.PersistentFlags().StringVar(&exportGcsURI, "gcs-uri", "", "gs://bucket/object destination, mutually exclusive with the BigQuery destination")
	cmdExport.PersistentFlags().StringVar(&exportBqDataset, "bq-dataset", "", "projects/P/datasets/D destination, requires -bq-table")
	cmdExport.PersistentFlags().StringVar(&exportBqTable, "bq-table", "", "BigQuery table written under -bq-dataset")
	cmdExport.PersistentFlags().BoolVar(&exportBqForce, "bq-force", false, "overwrite the destination BigQuery table")
	cmdExport.PersistentFlags().DurationVar(&exportTimeout, "timeout", 30*time.Minute, "timeout the export if the duration exceeds the given parameter, accepted values are in time.Duration string format - 30m, 2h...")

	rootCmd.AddCommand(cmdExport)
}
