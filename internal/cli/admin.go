package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command, which provisions the indexes
// the configuration declares - the same work the upstream application
// does at startup.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "init",
		Short:         "Provision declared collection indexes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, cfg, err := openRegistry(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer reg.Backend().Close(ctx)

			// registry.Open already ensured the indexes; report what it did.
			var n int
			for _, col := range cfg.Collections {
				n += len(col.Indexes)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("ensured %d indexes across %d collections on the %s backend",
				n, len(cfg.Collections), reg.Backend().Kind()))
		},
	}
	return cmd
}

// NewPingCommand creates the ping command.
func NewPingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ping",
		Short:         "Check that the configured backend is reachable",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, _, err := openRegistry(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer reg.Backend().Close(ctx)

			if err := reg.Backend().Ping(ctx); err != nil {
				return err
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("%s backend reachable", reg.Backend().Kind()))
		},
	}
	return cmd
}
