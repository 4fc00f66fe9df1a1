package cmd

import (
	"context"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/helpers"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/pkg/cai"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	errParseCLIParam = errors.New("parameter parse failed")
)

var (
	// cfgFile is the configuration file
	cfgFile string

	// logLevel overrides the configured logging level - info, debug, trace
	logLevel string

	// enablePProf enables the profiling endpoint
	enablePProf bool
)

// rootCmd is the cli root command instance, subcommands register themselves here
var rootCmd = &cobra.Command{
	Use:   "assay",
	Short: "assay queries the cloud asset inventory and publishes asset snapshots",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// Run is the main command entry point, all sub commands register themselves on rootCmd
func Run() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "assay configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "set logging level - debug, trace")
	rootCmd.PersistentFlags().BoolVar(&enablePProf, "enable-pprof", false, "enable pprof endpoint on "+model.ProfilingEndpoint)
}

// newFacadeClient initializes the app configuration and returns an asset
// inventory facade client for the oneshot query commands.
func newFacadeClient(ctx context.Context) (*app.App, *cai.Client, error) {
	assay, err := app.New(ctx, model.AppKindOneshot, cfgFile, logLevel)
	if err != nil {
		return nil, nil, err
	}

	if enablePProf {
		helpers.EnablePProfile()
	}

	gcp := assay.Config.GCPOptions

	client, err := cai.New(ctx, &cai.Config{
		CredentialsFile: gcp.CredentialsFile,
		Endpoint:        gcp.Endpoint,
		UserAgent:       gcp.UserAgent,
		PageSize:        gcp.PageSize,
	}, assay.Logger)
	if err != nil {
		return nil, nil, err
	}

	return assay, client, nil
}
