package main

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	tplengine "github.com/goliatone/go-tplengine"
	"github.com/goliatone/go-tplengine/pkg/config"
)

type rootFlags struct {
	configPath string
	envFiles   []string
	dirs       []string
	builtin    bool
	logLevel   string
	dialect    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "tplengine-cli",
		Short:         "Resolve, parse and render templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, ".env files read before TPLENGINE_* variables")
	cmd.PersistentFlags().StringSliceVarP(&flags.dirs, "dir", "d", nil, "template directory (repeatable)")
	cmd.PersistentFlags().BoolVar(&flags.builtin, "builtin", false, "serve the bundled sample templates")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().StringVar(&flags.dialect, "dialect", "", "expression dialect: expr or django")

	cmd.AddCommand(newRenderCmd(flags), newListCmd(flags))
	return cmd
}

// loadConfig merges file, environment and flags, in that order.
func (f *rootFlags) loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv(f.envFiles...)
	if err != nil {
		return config.Config{}, err
	}
	if f.configPath != "" {
		fileCfg, err := config.Load(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		// Environment still wins over the file.
		if cfg, err = config.ApplyEnv(fileCfg, nil); err != nil {
			return config.Config{}, err
		}
	}
	if len(f.dirs) > 0 {
		cfg.Templates.Dirs = append(cfg.Templates.Dirs, f.dirs...)
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.dialect != "" {
		cfg.Expressions.Dialect = f.dialect
	}
	return cfg, nil
}

// templateNames lists candidate template names for prompts and the list
// command.
func (f *rootFlags) templateNames(cfg config.Config) ([]string, error) {
	var sources []fs.FS
	if f.builtin {
		sources = append(sources, tplengine.EmbeddedTemplates())
	}
	for _, dir := range cfg.Templates.Dirs {
		sources = append(sources, os.DirFS(dir))
	}

	seen := make(map[string]struct{})
	var names []string
	for _, fsys := range sources {
		matches, err := doublestar.Glob(fsys, "**/*", doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			names = append(names, match)
		}
	}
	sort.Strings(names)
	return names, nil
}

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the templates visible to the configured file resolvers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			names, err := flags.templateNames(cfg)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
