package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tgagor/bern/pkg/build"
	"github.com/tgagor/bern/pkg/builder"
	"github.com/tgagor/bern/pkg/config"
	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/image"
	"github.com/tgagor/bern/pkg/logger"
	"github.com/tgagor/bern/pkg/util"
)

var BuildVersion string // Will be set dynamically at build time.
var appName string = "bern"
var flags config.Flags

var cmd = &cobra.Command{
	Use:   appName,
	Short: "Render a templated Dockerfile and build its stages.",
	Long: `Renders Dockerfile.j2 (or any --file) with values from the environment,
values files and --set overrides, resolves the stages of the result and
runs the container engine once per requested target.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{Verbose: flags.Verbose, Quiet: flags.Quiet, NoColor: flags.NoColor})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// If version flag is provided, show the version and exit.
		if flags.PrintVersion {
			printVersion()
			return nil
		}

		opts, err := buildOptions(flags)
		if err != nil {
			return err
		}
		engine, err := builder.New(flags.Engine, builder.Options{
			Verbose: !flags.Quiet,
			DryRun:  flags.DryRun,
		})
		if err != nil {
			return err
		}

		log.Info().Str("file", opts.File).Str("engine", engine.Name()).Msg("Loading")
		o := &build.Orchestrator{Engine: engine}
		report, err := o.Run(cmd.Context(), opts)
		if report != nil {
			report.Print(os.Stdout, !flags.NoColor && isatty.IsTerminal(os.Stdout.Fd()))
		}
		return err
	},
}

func init() {
	if BuildVersion == "" {
		BuildVersion = "development" // Fallback if not set during build
	}

	// shared with every subcommand
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.File, "file", "f", "Dockerfile.j2", "Templated build file to render")
	pf.StringVarP(&flags.ContextDir, "context", "C", "", "Build context directory (default: directory of --file)")
	pf.StringArrayVar(&flags.Targets, "target", nil, "Stage to build, repeatable (default: last stage)")
	pf.StringArrayVar(&flags.Set, "set", nil, "Set a template variable, key=value (dots create nested maps)")
	pf.StringArrayVar(&flags.SetJSON, "set-json", nil, "Set a template variable from JSON, key=json")
	pf.StringArrayVar(&flags.ValuesFiles, "values", nil, "YAML or JSON values file, repeatable, later files win")
	pf.StringVar(&flags.EnvFile, "env-file", "", "Dotenv file (default: .env in the context directory)")
	pf.StringArrayVar(&flags.BuildArgs, "build-arg", nil, "Build argument KEY=VALUE, repeatable")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Increase verbosity of output")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Only print warnings and errors, keep engine output for failures")
	pf.BoolVar(&flags.NoColor, "no-color", false, "Disable color output")

	cmd.Flags().StringArrayVarP(&flags.Tags, "tag", "t", nil, "Tag for the built image, repeatable, may use template variables")
	cmd.Flags().StringVar(&flags.Output, "output", "", "Export the built stage's filesystem into this directory")
	cmd.Flags().StringVar(&flags.ExportStage, "export-stage", "", "Stage to export instead of the built target")
	cmd.Flags().StringArrayVar(&flags.Labels, "label", nil, "Image label key=value, repeatable")
	cmd.Flags().BoolVar(&flags.OCILabels, "oci-labels", false, "Add org.opencontainers.image.* labels")
	cmd.Flags().StringSliceVar(&flags.Platforms, "platform", nil, "Target platforms, comma separated")
	cmd.Flags().StringVar(&flags.Engine, "engine", builder.EngineAuto, "Engine driver: auto, buildx, docker or podman")
	cmd.Flags().StringVar(&flags.EngineArgs, "engine-args", "", "Extra arguments passed to the engine, shell quoted")
	cmd.Flags().BoolVar(&flags.KeepGoing, "keep-going", false, "Continue with the next target after a failure")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print engine commands but don't execute them")
	cmd.Flags().BoolVarP(&flags.PrintVersion, "version", "V", false, "Display the application version and exit")

	cmd.AddCommand(renderCmd, stagesCmd, contextCmd, versionCmd)
}

func main() {
	logger.Init(logger.Options{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	util.FailOnError(err, appName, "failed")
}

func printVersion() {
	fmt.Printf("%s version: %s\n", appName, BuildVersion)
}

// buildOptions turns parsed flags into orchestrator input, loading values
// files along the way.
func buildOptions(f config.Flags) (build.Options, error) {
	values := map[string]any{}
	for _, file := range f.ValuesFiles {
		log.Debug().Str("file", file).Msg("Loading values")
		loaded, err := config.LoadValues(file)
		if err != nil {
			return build.Options{}, &errs.ConfigError{Field: "values", Cause: err}
		}
		values = config.MergeValues(values, loaded)
	}

	buildArgs, err := image.ParseKeyValues("build-arg", f.BuildArgs)
	if err != nil {
		return build.Options{}, err
	}
	labels, err := image.ParseKeyValues("label", f.Labels)
	if err != nil {
		return build.Options{}, err
	}
	engineArgs, err := shlex.Split(f.EngineArgs)
	if err != nil {
		return build.Options{}, errs.Config("engine-args", "%v", err)
	}

	return build.Options{
		File:        f.File,
		ContextDir:  f.ContextDir,
		Targets:     f.Targets,
		Tags:        f.Tags,
		Output:      f.Output,
		ExportStage: f.ExportStage,
		Values:      []map[string]any{values},
		Set:         f.Set,
		SetJSON:     f.SetJSON,
		EnvFile:     f.EnvFile,
		BuildArgs:   buildArgs,
		Labels:      labels,
		OCILabels:   f.OCILabels,
		Platforms:   f.Platforms,
		EngineArgs:  engineArgs,
		KeepGoing:   f.KeepGoing,
		DryRun:      f.DryRun,
	}, nil
}
