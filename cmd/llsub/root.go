package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/internal/config"
	"github.com/MimeLyc/llsub/internal/service"
	"github.com/MimeLyc/llsub/internal/subtitle"
	"github.com/MimeLyc/llsub/pkg/log"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	var (
		translateOnly bool
		force         bool
		dryRun        bool
		preview       int
	)

	rootCmd := &cobra.Command{
		Use:   "llsub [flags] <input.xx.srt> [target-language]",
		Short: "Create dual-language subtitles for language learners",
		Long: "llsub translates a subtitle named like movie.sv.srt into movie.en.srt and merges\n" +
			"both into movie.sv-en.srt, where every cue shows the original line followed by\n" +
			"its translation in parentheses.",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []config.Option
			if len(args) == 2 {
				tag, err := language.Parse(args[1])
				if err != nil {
					return service.WrapError(err, service.ErrValidation, fmt.Sprintf("invalid target language %q", args[1]))
				}
				opts = append(opts, config.WithTargetLanguage(tag))
			}

			cfg, err := ctx.loadConfig(opts...)
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
			log.Info("Translating %s to %s", args[0], describeTarget(cfg))

			progress := newProgress(cmd.ErrOrStderr())
			res, err := service.NewPipeline(backends).Run(cmd.Context(), args[0], service.Options{
				Target:        cfg.Translate.TargetLanguage,
				TranslateOnly: translateOnly,
				Force:         force,
				DryRun:        dryRun,
				MergeStyle:    style,
				OnProgress:    progress.update,
			})
			progress.finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSummary(out, res, dryRun)
			if preview > 0 {
				fmt.Fprintln(out, renderPreview(res, preview))
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&translateOnly, "translate-only", false, "Only translate the subtitles without merging")
	flags.BoolVarP(&force, "force", "f", false, "Overwrite existing dual language subtitles")
	flags.BoolVar(&dryRun, "dry-run", false, "Translate and merge without writing any file")
	flags.IntVar(&preview, "preview", 0, "Print the first N cues as a table")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	persistent.StringVar(&ctx.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	persistent.StringVar(&ctx.backendFlag, "backend", "", "Translation backend: google or llm")
	persistent.StringVar(&ctx.styleFlag, "merge-style", "", "Merged cue layout: stacked or interleaved")

	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func printSummary(out io.Writer, res *service.Result, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "(dry run) "
	}

	state := "translated"
	if res.Reused {
		state = "reused"
	}
	fmt.Fprintf(out, "%sTranslated subtitles (%s): %s\n", prefix, state, res.TranslatedPath)
	if res.MergedPath != "" {
		fmt.Fprintf(out, "%sDual language subtitles: %s (%d cues)\n", prefix, res.MergedPath, len(res.Merged))
	}
	if res.Mismatch != nil {
		fmt.Fprintf(out, "Warning: %v\n", res.Mismatch)
	}
}
