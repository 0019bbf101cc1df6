// Package main is the CLI entry point for devin.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devin-dcc/devin/internal/config"
	"github.com/devin-dcc/devin/internal/infra"
	"github.com/devin-dcc/devin/internal/logging"
	"github.com/devin-dcc/devin/internal/profile"
	"github.com/devin-dcc/devin/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command line and returns the process exit code.
func execute(args []string) int {
	root := newRootCmd(profile.NewRegistry())
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var status *childExit
	if asChildExit(err, &status) {
		return status.code
	}

	fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
	return exitCode(err)
}

var (
	logLevel   string
	jsonOutput bool
)

func newRootCmd(profiles *profile.Registry) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devin",
		Short: "Launch DCC applications with a composed environment",
		Long: `devin discovers installed Maya, MotionBuilder and Blender versions,
picks the requested one and launches it with extra site-packages,
plugin and module paths added to its environment.

Arguments after the first positional argument, or after --, are passed
to the application unchanged. The exit code is the application's own.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warning, error)")

	for _, p := range profiles.GetAll() {
		rootCmd.AddCommand(newLaunchCmd(profiles, p))
	}

	listCmd := &cobra.Command{
		Use:   "list [kind]",
		Short: "List discovered application versions",
		Long:  `Shows every discovered installation with its version, discovery source and executable.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, profiles, args)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the merged configuration",
		Long:  `Prints the configuration after merging defaults, the config file, DEVIN_* variables and flags.`,
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}

	clearCmd := &cobra.Command{
		Use:   "clear-resources",
		Short: "Delete the local resource directory",
		Long:  `Deletes bootstrap scripts and other cached resources. They are recreated on the next launch.`,
		Args:  cobra.NoArgs,
		RunE:  runClearResources,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
		Args:  cobra.NoArgs,
		Run:   runVersion,
	}
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(listCmd, configCmd, clearCmd, versionCmd)
	return rootCmd
}

// loadConfig merges configuration with the flags of cmd already bound by bind.
func loadConfig(cmd *cobra.Command, bind func(*config.Loader) error) (*config.Config, error) {
	loader := config.NewLoader()
	if f := cmd.Flags().Lookup("log-level"); f != nil {
		if err := loader.BindFlag("log.level", f); err != nil {
			return nil, err
		}
	}
	if bind != nil {
		if err := bind(loader); err != nil {
			return nil, err
		}
	}
	return loader.Load()
}

func runList(cmd *cobra.Command, profiles *profile.Registry, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return &usageError{err}
	}
	logger := logging.New(cfg.Log, os.Stderr)
	defer func() { _ = logger.Sync() }()

	selected := profiles.GetAll()
	if len(args) == 1 {
		p, err := profiles.Lookup(args[0])
		if err != nil {
			return &usageError{err}
		}
		selected = []*profile.Profile{p}
	}

	index := newInstallIndex(profiles, cfg, logger)
	out := cmd.OutOrStdout()
	for _, p := range selected {
		variants, err := index.ListInstalled(cmd.Context(), p.Kind)
		fmt.Fprintf(out, "\n[%s] %s\n", p.Kind, p.Name)
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		if len(variants) == 0 {
			fmt.Fprintln(out, "  (none)")
			continue
		}
		for _, v := range variants {
			fmt.Fprintf(out, "  %-10s %-9s %s\n", v.Version, v.Source, v.ExecutablePath)
		}
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return &usageError{err}
	}

	if cfg.File != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.File)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "# defaults (no config file)")
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	return enc.Close()
}

func runClearResources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return &usageError{err}
	}
	logger := logging.New(cfg.Log, os.Stderr)
	defer func() { _ = logger.Sync() }()

	cleaner := usecase.NewResourceCleaner(infra.NewFileSystemManager(), cfg.ResourceDir, logger)
	removed, err := cleaner.Clear()
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cfg.ResourceDir)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to clear at %s\n", cfg.ResourceDir)
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		data, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "devin %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
}
