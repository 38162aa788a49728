package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tgagor/bern/pkg/build"
	"github.com/tgagor/bern/pkg/contexttar"
	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/parser"
	"github.com/tgagor/bern/pkg/util"
)

var contextOutput string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the rendered build file to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(flags)
		if err != nil {
			return err
		}
		o := &build.Orchestrator{}
		out, rt, ctx, err := o.Render(opts)
		if err != nil {
			return err
		}
		log.Debug().Msg("Template context:\n" + util.PrettyPrintMap(ctx.Data()))
		if tags := rt.Tags(); len(tags) > 0 {
			log.Info().Strs("tags", tags).Msg("Template adds")
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the stages of the rendered build file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(flags)
		if err != nil {
			return err
		}
		o := &build.Orchestrator{}
		plan, err := o.Prepare(opts)
		if err != nil {
			return err
		}
		printStages(cmd.OutOrStdout(), plan)
		return nil
	},
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Write the rendered build file and its context as a tar stream",
	Long: `Writes a tar stream holding the rendered Dockerfile followed by the context
directory, without the entries matched by .dockerignore. Pipe it into
"docker build -".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(flags)
		if err != nil {
			return err
		}
		o := &build.Orchestrator{}
		out, _, _, err := o.Render(opts)
		if err != nil {
			return err
		}
		root, err := opts.ContextRoot()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if contextOutput != "" && contextOutput != "-" {
			f, err := os.Create(contextOutput)
			if err != nil {
				return errs.Config("output", "%v", err)
			}
			defer func() { util.WarnOnError(f.Close(), "Closing", contextOutput) }()
			w = f
		}
		return contexttar.Write(w, contexttar.Options{Root: root, Dockerfile: out})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func init() {
	contextCmd.Flags().StringVarP(&contextOutput, "output", "o", "-", "Tar file to write, - for stdout")
}

// printStages lists every stage with its dependencies and marks the
// selected targets and the stages they need.
func printStages(w io.Writer, plan *build.Plan) {
	stages := plan.Graph.Stages()

	needed := map[int]bool{}
	selected := map[int]bool{}
	for _, target := range plan.Targets {
		selected[target.Index] = true
		for _, s := range plan.Graph.Closure(target) {
			needed[s.Index] = true
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Name", "Base", "Line", "Depends on", "Build"})

	for _, s := range stages {
		deps := make([]string, 0, len(s.Deps))
		for _, d := range s.Deps {
			deps = append(deps, stages[d].String())
		}
		role := ""
		switch {
		case selected[s.Index]:
			role = "target"
		case needed[s.Index]:
			role = "needed"
		}
		t.AppendRow(table.Row{s.Index, displayName(s), s.Base, s.Line, strings.Join(deps, ", "), role})
	}
	t.Render()

	if plan.ExportStage != "" {
		fmt.Fprintf(w, "export stage: %s\n", plan.ExportStage)
	}
	if tags := plan.Image.Tags(); len(tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(tags, ", "))
	}
}

func displayName(s *parser.Stage) string {
	if s.Name != "" {
		return s.Name
	}
	return "(" + strconv.Itoa(s.Index) + ")"
}
