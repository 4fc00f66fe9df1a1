package cmd

import (
	"fmt"
	"log"

	"github.com/asset-toolbox/assay/pkg/cai"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/encoding/protojson"
)

var (
	listScope       string
	listAssetTypes  []string
	listContentType string
	listPageSize    int32
)

// list assets command, records print to stdout as one JSON document per line.
var cmdList = &cobra.Command{
	Use:   "list",
	Short: "List assets under an organization, folder or project",
	Run: func(cmd *cobra.Command, _ []string) {
		if listScope == "" {
			log.Fatal(errors.Wrap(errParseCLIParam, "list requires a -scope parameter"))
		}

		contentType, err := cai.ParseContentType(listContentType)
		if err != nil {
			log.Fatal(errors.Wrap(errParseCLIParam, err.Error()))
		}

		_, client, err := newFacadeClient(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		defer client.Close()

		it, err := client.Assets(cmd.Context(), &cai.ListParams{
			Scope:       listScope,
			AssetTypes:  listAssetTypes,
			ContentType: contentType,
			PageSize:    listPageSize,
		})
		if err != nil {
			log.Fatal(err)
		}

		for {
			record, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}

			if err != nil {
				log.Fatal(err)
			}

			out, err := protojson.Marshal(record)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println(string(out))
		}
	},
}

// install command flags
func init() {
	cmdList.PersistentFlags().StringVar(&listScope, "scope", "", "organization, folder or project to list under - organizations/N, folders/N, projects/ID")
	cmdList.PersistentFlags().StringSliceVar(&listAssetTypes, "asset-types", nil, "limit the listing to the given comma separated asset types")
	cmdList.PersistentFlags().StringVar(&listContentType, "content-type", "", "asset content returned - resource, iam-policy, org-policy, access-policy, os-inventory, relationship")
	cmdList.PersistentFlags().Int32Var(&listPageSize, "page-size", 0, "records per page, the client default applies when zero")

	rootCmd.AddCommand(cmdList)
}
