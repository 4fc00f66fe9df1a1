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
	searchScope      string
	searchQuery      string
	searchAssetTypes []string
	searchOrderBy    string
	searchPageSize   int32
)

// search resources command, records print to stdout as one JSON document per line.
var cmdSearch = &cobra.Command{
	Use:   "search",
	Short: "Search resources in an organization, folder or project matching a query",
	Run: func(cmd *cobra.Command, _ []string) {
		if searchScope == "" {
			log.Fatal(errors.Wrap(errParseCLIParam, "search requires a -scope parameter"))
		}

		_, client, err := newFacadeClient(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		defer client.Close()

		it, err := client.SearchResources(cmd.Context(), &cai.SearchParams{
			Scope:      searchScope,
			Query:      searchQuery,
			AssetTypes: searchAssetTypes,
			OrderBy:    searchOrderBy,
			PageSize:   searchPageSize,
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
	cmdSearch.PersistentFlags().StringVar(&searchScope, "scope", "", "organization, folder or project to search under - organizations/N, folders/N, projects/ID")
	cmdSearch.PersistentFlags().StringVar(&searchQuery, "query", "", "search expression, an empty query matches every searchable resource in scope")
	cmdSearch.PersistentFlags().StringSliceVar(&searchAssetTypes, "asset-types", nil, "limit the search to the given comma separated asset types")
	cmdSearch.PersistentFlags().StringVar(&searchOrderBy, "order-by", "", "comma separated list of result fields to sort on")
	cmdSearch.PersistentFlags().Int32Var(&searchPageSize, "page-size", 0, "records per page, the client default applies when zero")

	rootCmd.AddCommand(cmdSearch)
}
