package table

import (
	"fmt"

	"github.com/netrixframework/qlearn/config"
	"github.com/netrixframework/qlearn/context"
	"github.com/netrixframework/qlearn/env"
	"github.com/netrixframework/qlearn/log"
	"github.com/netrixframework/qlearn/rl"
	"github.com/netrixframework/qlearn/visualizer"
	"github.com/spf13/cobra"
)

// TableCmd returns the command which prints the stored value table
func TableCmd() *cobra.Command {
	var values, colors bool

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the greedy policy of the stored value table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ParseConfig(config.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to parse config: %w", err)
			}
			if err := log.Init(conf.LogConfig); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Destroy()

			ctx, err := context.NewRootContext(conf, log.DefaultLogger)
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer ctx.Stop()

			out := cmd.OutOrStdout()
			lake, err := env.FromConfig(conf.Environment, out, colors)
			if err != nil {
				return fmt.Errorf("failed to create environment: %w", err)
			}
			table, err := rl.LoadTable(ctx.Store, lake.Key, lake.StateCount(), lake.ActionCount())
			if err != nil {
				return err
			}
			viz, err := visualizer.NewPolicyVisualizer(lake, table, colors)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s\n", lake.Key)
			if err := viz.Policy(out); err != nil {
				return err
			}
			if values {
				fmt.Fprintln(out)
				return viz.Values(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&values, "values", false, "Also print the value of every state")
	cmd.Flags().BoolVar(&colors, "colors", true, "Use ANSI colours")
	return cmd
}
