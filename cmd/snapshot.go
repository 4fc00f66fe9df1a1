package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/collector"
	"github.com/asset-toolbox/assay/internal/helpers"
	"github.com/asset-toolbox/assay/internal/metrics"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/internal/publish"
	"github.com/equinix-labs/otel-init-go/otelinit"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

var (
	// snapshotOneshot runs a single collection and exits instead of
	// collecting on the configured interval.
	snapshotOneshot bool
)

// snapshot collection command
var cmdSnapshot = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect asset snapshots for the configured scopes and publish them to the configured sink",
	Run: func(cmd *cobra.Command, _ []string) {
		kind := model.AppKindSnapshotter
		if snapshotOneshot {
			kind = model.AppKindOneshot
		}

		assay, err := app.New(cmd.Context(), kind, cfgFile, logLevel)
		if err != nil {
			log.Fatal(err)
		}

		if len(assay.Config.Scopes) == 0 {
			log.Fatal(errors.Wrap(model.ErrConfig, "snapshot collection requires one or more scopes"))
		}

		// serve prometheus metrics endpoint
		metrics.ListenAndServe()

		if enablePProf {
			helpers.EnablePProfile()
		}

		// setup otel, flush on exit
		otelCtx, otelShutdown := otelinit.InitOpenTelemetry(cmd.Context(), model.AppName)
		defer otelShutdown(otelCtx)

		// setup cancel context with cancel func
		ctx, cancelFunc := context.WithCancel(otelCtx)
		defer cancelFunc()

		publisher, err := publish.NewPublisher(ctx, assay)
		if err != nil {
			log.Fatal(err)
		}

		snapshotCollector, err := collector.NewSnapshotCollector(ctx, assay, publisher)
		if err != nil {
			log.Fatal(err)
		}

		if snapshotOneshot {
			if _, err := snapshotCollector.Collect(ctx); err != nil {
				assay.Logger.Fatal(err)
			}

			assay.SyncWg.Wait()

			return
		}

		// routine listens for termination signal
		go func() {
			<-assay.TermCh
			cancelFunc()
		}()

		// a SIGHUP kicks off an immediate collection
		kickCh := make(chan struct{})
		hupCh := make(chan os.Signal, 1)
		signal.Notify(hupCh, syscall.SIGHUP)

		go func() {
			for range hupCh {
				kickCh <- struct{}{}
			}
		}()

		snapshotCollector.CollectScheduled(
			ctx,
			assay.Config.CollectInterval,
			assay.Config.CollectIntervalSplay,
			kickCh,
		)

		// wait all routines are complete
		assay.Logger.Trace("waiting for routines..")
		assay.SyncWg.Wait()
		assay.Logger.Trace("done..")
	},
}

// install command flags
func init() {
	cmdSnapshot.PersistentFlags().BoolVar(&snapshotOneshot, "oneshot", false, "collect and publish a single snapshot, then exit")

	rootCmd.AddCommand(cmdSnapshot)
}
