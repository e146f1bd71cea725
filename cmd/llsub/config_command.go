package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/llsub/internal/config"
	"github.com/MimeLyc/llsub/internal/service"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML (secrets omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			defer ctx.close()

			data, err := config.SampleTOML(*cfg)
			if err != nil {
				return service.WrapError(err, service.ErrConfig, "failed to render configuration")
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
