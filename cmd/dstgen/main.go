package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/edvin/dstgen/internal/config"
	"github.com/edvin/dstgen/internal/logging"
	"github.com/edvin/dstgen/internal/setup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// cliOptions are the flags shared by every command.
type cliOptions struct {
	ConfigFile     string `validate:"required"`
	Output         string
	ServerDir      string
	WriteInstaller bool
	Script         bool
	ScriptType     string `validate:"oneof=simple tmux"`
	Multilib       string `validate:"oneof=x86 x86_64"`
	ModIDs         string `validate:"oneof=workshop raw"`
	DryRun         bool
}

type app struct {
	opts   cliOptions
	cfg    *config.Config
	logger zerolog.Logger
	stdout io.Writer
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout}

	root := &cobra.Command{
		Use:   "dstgen",
		Short: "Generate a Don't Starve Together dedicated server cluster",
		Long: `dstgen compiles a cluster description into cluster.ini, per-shard
server.ini and Lua override files, the server mod installer descriptor and
a start.sh launch script.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate()
		},
	}

	bindFlags(root.PersistentFlags(), &a.opts, setup.DefaultOptions())
	_ = root.MarkPersistentFlagRequired("config-file")

	root.AddCommand(newWatchCmd(a))
	return root
}

func bindFlags(flags *pflag.FlagSet, opts *cliOptions, defaults setup.Options) {
	flags.StringVarP(&opts.ConfigFile, "config-file", "c", "", "cluster description (.yml, .yaml, .json, .jsonc)")
	flags.StringVarP(&opts.Output, "output", "o", "", "cluster output directory (default ./<config file name>)")
	flags.StringVar(&opts.ServerDir, "dst-server-dir", "", "dedicated server install directory (default $DST_SERVER_DIR)")
	flags.BoolVar(&opts.WriteInstaller, "write-installer", defaults.WriteInstaller, "write mods/dedicated_server_mods_setup.lua into the server install")
	flags.BoolVar(&opts.Script, "script", defaults.Script, "write the start.sh launch script")
	flags.StringVar(&opts.ScriptType, "script-type", string(defaults.ScriptStyle), "launch script style: simple or tmux")
	flags.StringVar(&opts.Multilib, "multilib", string(defaults.Platform), "server binary to launch: x86 or x86_64")
	flags.StringVar(&opts.ModIDs, "mod-ids", string(defaults.ModPolicy), "installer mod ids: workshop (strip workshop- prefix, skip local mods) or raw")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "print the files that would be written and exit")
}

func (a *app) prepare() error {
	if err := validator.New().Struct(a.opts); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewLogger(cfg)
	return nil
}

func (a *app) options(serverDir string) setup.Options {
	return setup.Options{
		ServerDir:      serverDir,
		WriteInstaller: a.opts.WriteInstaller,
		Script:         a.opts.Script,
		ScriptStyle:    setup.ScriptStyle(a.opts.ScriptType),
		Platform:       setup.Platform(a.opts.Multilib),
		ModPolicy:      setup.ModPolicy(a.opts.ModIDs),
	}
}

// generate compiles the cluster description and writes the result. Every
// check runs before the first file is written.
func (a *app) generate() error {
	serverDir, err := setup.ResolveServerDir(a.opts.ServerDir, a.cfg.ServerDir)
	if err != nil {
		return err
	}
	outputDir := a.opts.Output
	if outputDir == "" {
		outputDir = setup.DefaultOutputDir(a.opts.ConfigFile)
	}

	res, err := setup.Build(a.opts.ConfigFile, a.options(serverDir))
	if err != nil {
		return err
	}

	writer := setup.NewWriter(a.logger, outputDir, serverDir)
	if a.opts.DryRun {
		for _, f := range res.Files {
			dest, err := writer.Path(f)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, dest)
		}
		return nil
	}
	return writer.Write(res)
}
