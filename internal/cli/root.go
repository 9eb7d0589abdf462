package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/cancionero/internal/config"
	"github.com/mrlokans/cancionero/internal/entrypoint"
	"github.com/mrlokans/cancionero/internal/logging"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	verbosity  int
	songsDir   string
	outputDir  string
}

// load reads the configuration and applies the flag overrides.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.verbosity > 0 {
		cfg.Log.Verbosity = o.verbosity
	}
	if o.songsDir != "" {
		cfg.Library.SongsDir = o.songsDir
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
	logging.SetupLogger(cfg.Log.Verbosity, nil)
	return cfg, nil
}

// app loads the configuration and opens the application.
func (o *options) app() (*entrypoint.App, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return entrypoint.NewApp(cfg)
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "cancionero",
		Short:         "Songbook renderer for the iResucito song library",
		Long:          `cancionero parses chord-annotated song texts, transposes them and lays them out as PDF, PNG, Markdown or terminal pages.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (yaml, toml or json); environment variables win")
	root.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	root.PersistentFlags().StringVar(&opts.songsDir, "songs", "", "Song library directory (overrides SONGS_DIR)")
	root.PersistentFlags().StringVar(&opts.outputDir, "out", "", "Output directory (overrides OUTPUT_DIR)")

	root.AddCommand(
		newServeCommand(opts, version),
		newPDFCommand(opts),
		newShowCommand(opts),
		newScaleCommand(),
		newCheckCommand(opts),
		newCatalogCommand(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
