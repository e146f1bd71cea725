package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/MimeLyc/llsub/internal/service"
	"github.com/MimeLyc/llsub/internal/subtitle"
	"github.com/MimeLyc/llsub/pkg/icron"
	"github.com/MimeLyc/llsub/pkg/log"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan WATCH_DIRS on CRON_EXPR and create dual-language subtitles for new files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			defer ctx.close()

			style, err := subtitle.ParseMergeStyle(cfg.Translate.MergeStyle)
			if err != nil {
				return service.WrapError(err, service.ErrConfig, "invalid merge style")
			}
			backends, err := ctx.backends(cmd.Context())
			if err != nil {
				return err
			}

			scheduler := cron.New()
			watcher, err := service.NewWatcher(service.NewPipeline(backends), scheduler, service.WatchOptions{
				Dirs:       cfg.Watch.Dirs,
				CronExpr:   cfg.Watch.CronExpr,
				Target:     cfg.Translate.TargetLanguage,
				MergeStyle: style,
			})
			if err != nil {
				return err
			}

			if once {
				results, err := watcher.Trigger(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d subtitles\n", len(results))
				return nil
			}

			if err := watcher.Schedule(cmd.Context()); err != nil {
				return service.WrapError(err, service.ErrConfig, "failed to schedule watch")
			}
			if info, err := icron.GetTriggerInfo(cfg.Watch.CronExpr, time.Now()); err == nil {
				log.Info("Next scan in %v", info.TimeUntilNext.Round(time.Second))
			}

			scheduler.Start()
			<-cmd.Context().Done()
			log.Info("Stopping watch, waiting for the running scan")
			<-scheduler.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Scan once and exit")
	return cmd
}
