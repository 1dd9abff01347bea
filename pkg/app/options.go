package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Option configures an App.
type Option func(*App)

// WithDescription sets the long description shown by --help.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions binds the options struct that flags, config and env fill.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the main body of the command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) { a.args = cobra.NoArgs }
}

// WithValidArgs sets a custom positional argument check.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithCommands adds subcommands.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.commands = append(a.commands, cmds...) }
}

// WithEnvPrefix sets the prefix of environment overrides. The default is the
// command name.
func WithEnvPrefix(prefix string) Option {
	return func(a *App) { a.envPrefix = prefix }
}

// WithConfigWatch calls fn every time the config file changes on disk. The
// options struct is not reloaded; fn reads what it needs from v.
func WithConfigWatch(fn func(v *viper.Viper)) Option {
	return func(a *App) { a.onChange = fn }
}
