package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tsl0922/mpv-menu-plugin/cli/cmd"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Log     logConfig     `embed:"" group:"log"     prefix:"log-"`
	Pprof   pprofConfig   `embed:"" group:"pprof"   prefix:"pprof-"`
	Dialect dialectConfig `embed:"" group:"dialect"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Init    cmd.Init    `cmd:"" help:"Initialize configuration file"`
	Parse   cmd.Parse   `cmd:"" help:"Print the descriptor tree of a menu definition"`
	Fmt     cmd.Fmt     `cmd:"" help:"Rewrite a menu definition in canonical form"`
	Preview cmd.Preview `cmd:"" help:"Show a menu definition in the terminal"`

	Run cmd.Run `cmd:"" help:"Attach the menu to a running player"`
}

// Run executes the CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier:     configFilePath,
		cmd.CacheIdentifier:      pkg.CacheDir(),
		cmd.ScriptOptsIdentifier: pkg.ScriptOptsPath(),
		"version":                pkg.Version(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	// Parse command line
	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Dialect.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithDialect(ctx, cli.Dialect.dialect())

	// Finalize logger configuration with all parsed values, including the
	// ones that don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx, commandName(ktx))()

	// Execute the selected command
	return ktx.Run(ctx, &cli)
}

// commandName is the selected command without its arguments.
func commandName(ktx *kong.Context) string {
	name, _, _ := strings.Cut(ktx.Command(), " ")

	return name
}
