package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
)

// NewServeCommand creates the serve command
func NewServeCommand(container *app.Container) *cobra.Command {
	var (
		listen        string
		noMaintenance bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis, comparison, generation and evaluation API over HTTP",
		Long: `Serve the JSON API until interrupted.
The maintenance schedule from config sweeps expired cache entries and prunes old history in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !noMaintenance {
				sched, err := container.NewScheduler()
				if err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}

			srv := container.NewServer(listen)
			fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", listenAddress(container, listen))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&noMaintenance, "no-maintenance", false, "Do not run the maintenance schedule")
	return cmd
}

func listenAddress(container *app.Container, override string) string {
	if override != "" {
		return override
	}
	return container.Config.GetListenAddress()
}
