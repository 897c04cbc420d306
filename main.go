package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fdoganis/clawz/pkg/config"
)

var (
	verbose    bool
	configPath string
	outDir     string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clawz",
	Short: "clawz - slice cubes into convex shards and let them fall",
	Long: `clawz replays cube-slicing scenarios headlessly.

A scenario is a Lisp script that places cubes, strokes cut gestures across
them and steps the shard physics until the pieces settle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// replayCmd runs a scenario and prints what happened.
var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Run a scenario and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, source, err := prepare(args[0])
		if err != nil {
			return err
		}
		result := app.Evaluate(source)
		out := cmd.OutOrStdout()
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w.Message)
		}
		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
			}
			return fmt.Errorf("%s: %d errors", args[0], len(result.Errors))
		}
		fmt.Fprintf(out, "time %.3fs  frames %d  slices %d  meshes %d  settled %t\n",
			result.Time, result.Frames, result.Slices, len(result.Meshes), result.Settled)
		for _, m := range result.Meshes {
			fmt.Fprintf(out, "  %-24s %s  %d triangles\n", m.PartName, m.Color, len(m.Indices)/3)
		}
		return nil
	},
}

// exportCmd runs a scenario and writes its pieces as STL files.
var exportCmd = &cobra.Command{
	Use:   "export <script>",
	Short: "Run a scenario and write every piece as an STL file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, source, err := prepare(args[0])
		if err != nil {
			return err
		}
		paths, err := app.Export(source, outDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// configCmd prints the documented example configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the example configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), config.ExampleFile)
		return err
	},
}

// prepare loads the configuration and the scenario at path.
func prepare(path string) (*App, string, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, "", err
		}
		logger.Debug("configuration loaded", zap.String("path", configPath))
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read scenario: %w", err)
	}
	return NewApp(cfg, logger), string(source), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "INI file overriding the default tuning")

	exportCmd.Flags().StringVarP(&outDir, "out", "o", "out", "Directory the STL files are written to")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
