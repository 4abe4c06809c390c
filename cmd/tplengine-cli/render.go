package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	tplengine "github.com/goliatone/go-tplengine"
	"github.com/goliatone/go-tplengine/pkg/engine"
	"github.com/goliatone/go-tplengine/pkg/template"
)

type renderFlags struct {
	varsFile  string
	set       []string
	mode      string
	selectors []string
	locale    string
	output    string
}

func newRenderCmd(root *rootFlags) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template to stdout or a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, flags, args)
		},
	}
	cmd.Flags().StringVar(&flags.varsFile, "vars", "", "YAML or JSON file with template variables")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "variable as key=value (repeatable)")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "force the template mode")
	cmd.Flags().StringSliceVarP(&flags.selectors, "selector", "s", nil, "render only matching fragments")
	cmd.Flags().StringVar(&flags.locale, "locale", "", "locale passed to the engine context")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func runRender(cmd *cobra.Command, root *rootFlags, flags *renderFlags, args []string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	build, err := cfg.Options(logger)
	if err != nil {
		return err
	}
	defer build.Close()

	options := build.Options
	if root.builtin {
		embedded, err := tplengine.NewEmbeddedResolver()
		if err != nil {
			return err
		}
		options = append(options, engine.WithResolvers(embedded))
	}
	eng, err := tplengine.NewEngine(options...)
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" {
		names, err := root.templateNames(cfg)
		if err != nil {
			return err
		}
		if name, err = newSurveyPrompter().chooseTemplate(cmd.Context(), names); err != nil {
			return err
		}
	}

	spec := engine.TemplateSpec{Name: name, Selectors: flags.selectors}
	if flags.mode != "" {
		if spec.Mode, err = template.ParseMode(flags.mode); err != nil {
			return err
		}
	}
	variables, err := flags.variables()
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if flags.output != "" {
		file, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	call := engine.Context{Locale: flags.locale, Variables: variables}
	if err := eng.ParseAndProcess(cmd.Context(), spec, call, out); err != nil {
		return err
	}
	if flags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Template written to %s\n", flags.output)
	}
	return nil
}

// variables merges the vars file with --set pairs; --set wins.
func (f *renderFlags) variables() (map[string]any, error) {
	vars := make(map[string]any)
	if f.varsFile != "" {
		data, err := os.ReadFile(f.varsFile)
		if err != nil {
			return nil, fmt.Errorf("read vars: %w", err)
		}
		// JSON documents are valid YAML.
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("decode vars %s: %w", f.varsFile, err)
		}
	}
	for _, pair := range f.set {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, errors.New("--set expects key=value, got " + pair)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}
