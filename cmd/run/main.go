package run

import (
	"fmt"

	"github.com/netrixframework/qlearn/apiserver"
	"github.com/netrixframework/qlearn/config"
	"github.com/netrixframework/qlearn/context"
	"github.com/netrixframework/qlearn/env"
	"github.com/netrixframework/qlearn/log"
	"github.com/netrixframework/qlearn/report"
	"github.com/netrixframework/qlearn/rl"
	"github.com/netrixframework/qlearn/util"
	"github.com/spf13/cobra"
)

// RunCmd returns the command which trains or evaluates the agent
func RunCmd() *cobra.Command {
	var episodes int
	var train, render bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Train or evaluate the agent for a number of episodes",
		Long: `Train or evaluate the agent for a number of episodes.

When training the value table starts from zero and is stored at the end of
the run. Otherwise the stored table is loaded and followed greedily.`,
		Args: cobra.NoArgs,
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
			lake, err := env.FromConfig(conf.Environment, out, true)
			if err != nil {
				return fmt.Errorf("failed to create environment: %w", err)
			}
			ctx.Logger.With(log.LogParams{
				"model": lake.Key,
				"seed":  lake.Seed,
			}).Debug("Created environment")

			opts := []rl.Option{
				rl.WithLogger(ctx.Logger),
				rl.WithObserver(ctx.Metrics),
				rl.WithObserver(ctx.Recorder),
			}
			if conf.Report.Progress && !render {
				opts = append(opts, rl.WithObserver(report.NewProgress(out, episodes)))
			}
			trainer, err := rl.NewTrainer(rl.NewConfig(conf.Trainer, lake.Key), lake, ctx.Store, opts...)
			if err != nil {
				return err
			}

			var server *apiserver.APIServer
			if conf.Server.Addr != "" {
				server = apiserver.NewAPIServer(ctx, apiserver.Model{
					Key:     lake.Key,
					States:  lake.StateCount(),
					Actions: lake.ActionCount(),
				})
				if err := server.Start(); err != nil {
					return fmt.Errorf("failed to start API server: %w", err)
				}
				defer server.Stop()
			}

			result, err := trainer.Run(episodes, train, render)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d episodes reached the goal\n", result.Successes(), len(result.Rewards))

			if conf.Report.ChartPath != "" {
				title := fmt.Sprintf("%s %s", lake.Key, mode(train))
				if err := report.WriteChart(conf.Report.ChartPath, title, result.Rolling); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote chart to %s\n", conf.Report.ChartPath)
			}

			if server != nil {
				fmt.Fprintf(out, "Serving results on http://%s, interrupt to exit\n", server.Addr())
				<-util.Term()
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 15000, "Number of episodes to run")
	cmd.Flags().BoolVarP(&train, "train", "t", false, "Train a new value table instead of evaluating the stored one")
	cmd.Flags().BoolVarP(&render, "render", "r", false, "Render every step of the environment")
	return cmd
}

func mode(train bool) string {
	if train {
		return "training"
	}
	return "evaluation"
}
