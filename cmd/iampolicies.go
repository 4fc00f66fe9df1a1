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
	policyScope      string
	policyQuery      string
	policyAssetTypes []string
	policyOrderBy    string
	policyPageSize   int32
)

// search IAM policies command, records print to stdout as one JSON document per line.
var cmdIamPolicies = &cobra.Command{
	Use:   "iam-policies",
	Short: "Search IAM policies in an organization, folder or project matching a query",
	Run: func(cmd *cobra.Command, _ []string) {
		if policyScope == "" {
			log.Fatal(errors.Wrap(errParseCLIParam, "iam-policies requires a -scope parameter"))
		}

		_, client, err := newFacadeClient(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		defer client.Close()

		it, err := client.SearchIamPolicies(cmd.Context(), &cai.PolicySearchParams{
			Scope:      policyScope,
			Query:      policyQuery,
			AssetTypes: policyAssetTypes,
			OrderBy:    policyOrderBy,
			PageSize:   policyPageSize,
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
	cmdIamPolicies.PersistentFlags().StringVar(&policyScope, "scope", "", "organization, folder or project to search under - organizations/N, folders/N, projects/ID")
	cmdIamPolicies.PersistentFlags().StringVar(&policyQuery, "query", "", "policy search expression, an empty query matches every policy in scope")
	cmdIamPolicies.PersistentFlags().StringSliceVar(&policyAssetTypes, "asset-types", nil, "limit the search to policies attached to the given comma separated asset types")
	cmdIamPolicies.PersistentFlags().StringVar(&policyOrderBy, "order-by", "", "comma separated list of result fields to sort on")
	cmdIamPolicies.PersistentFlags().Int32Var(&policyPageSize, "page-size", 0, "records per page, the client default applies when zero")

	rootCmd.AddCommand(cmdIamPolicies)
}
