package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/cancionero/internal/entrypoint"
)

func newServeCommand(opts *options, version string) *cobra.Command {
	var port int32
	var host string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Serves the song API, the live transposition preview and the metrics endpoint. Runs the task queue and the songbook rebuild schedule when enabled.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			if cmd.Flags().Changed("port") {
				app.Config.HTTP.Port = port
			}
			if cmd.Flags().Changed("host") {
				app.Config.HTTP.Host = host
			}
			if cmd.Flags().Changed("read-only") {
				app.Config.HTTP.ReadOnly = readOnly
			}
			return entrypoint.Run(app, version)
		},
	}

	cmd.Flags().Int32Var(&port, "port", 8080, "Port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind (overrides HOST)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject requests that build documents (overrides READ_ONLY)")
	return cmd
}
