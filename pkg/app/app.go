// Package app builds cobra commands whose flags, config file and
// environment all feed one options struct.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"

	"github.com/autopeer-io/truckhub/pkg/log"
)

// NamedFlagSetOptions is implemented by the options struct of a command.
type NamedFlagSetOptions interface {
	// Flags returns the flags grouped by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills defaults that depend on other values.
	Complete() error

	// Validate checks the options after they have been loaded.
	Validate() error
}

// logOptionsProvider is implemented by options that carry logger settings.
type logOptionsProvider interface {
	LogOptions() *log.Options
}

// RunFunc is the main body of a command.
type RunFunc func() error

// App is a cobra command bound to a viper instance.
type App struct {
	name        string
	shortDesc   string
	description string
	envPrefix   string

	options  NamedFlagSetOptions
	runFunc  RunFunc
	args     cobra.PositionalArgs
	commands []*cobra.Command
	onChange func(v *viper.Viper)

	viper   *viper.Viper
	cfgFile string
	cmd     *cobra.Command
}

// NewApp creates an App and its root command.
func NewApp(name, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		envPrefix: name,
		viper:     viper.New(),
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command { return a.cmd }

// Viper returns the viper instance backing the options.
func (a *App) Viper() *viper.Viper { return a.viper }

// Run executes the command and exits non-zero on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}
	cmd.AddCommand(a.commands...)

	var namedfs cliflag.NamedFlagSets
	if a.options != nil {
		namedfs = a.options.Flags()
	}
	fs := namedfs.FlagSet("global")
	globalflag.AddGlobalFlags(fs, cmd.Name())
	fs.StringVarP(&a.cfgFile, "config", "c", "", "Read configuration from the specified file (yaml, json or toml).")
	for _, f := range namedfs.FlagSets {
		cmd.Flags().AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		fmt.Fprintf(c.OutOrStderr(), "Usage:\n  %s\n", c.UseLine())
		cliflag.PrintSections(c.OutOrStderr(), namedfs, cols)
		return nil
	})
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		fmt.Fprintf(c.OutOrStdout(), "%s\n\nUsage:\n  %s\n", c.Long, c.UseLine())
		if c.HasAvailableSubCommands() {
			fmt.Fprintln(c.OutOrStdout(), "\nAvailable Commands:")
			for _, sub := range c.Commands() {
				if sub.IsAvailableCommand() {
					fmt.Fprintf(c.OutOrStdout(), "  %-12s %s\n", sub.Name(), sub.Short)
				}
			}
		}
		cliflag.PrintSections(c.OutOrStdout(), namedfs, cols)
	})

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if a.options != nil {
		if err := a.loadConfig(cmd); err != nil {
			return err
		}
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
		if p, ok := a.options.(logOptionsProvider); ok {
			log.Init(p.LogOptions())
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting "+a.name, "config", a.viper.ConfigFileUsed())
	if err := a.runFunc(); err != nil {
		log.Error(err, a.name+" exited with error")
		return err
	}
	return nil
}
