// Package cli implements the command-line interface for superforge.
package cli

import (
	"io"
	"os"

	"github.com/eunmann/superforge/internal/config"
	"github.com/eunmann/superforge/internal/logctx"
	"github.com/eunmann/superforge/pkg/logging"
	"github.com/eunmann/superforge/pkg/procexec"
	"github.com/spf13/cobra"
)

// app holds state shared by the commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	debug      bool
	human      bool

	cfg     *config.Config
	cfgPath string

	// exec runs the external tools; tests swap in a fake.
	exec procexec.Executor
}

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	a := &app{stdout: os.Stdout, stderr: os.Stderr, exec: procexec.OS{}}
	return a.run(args)
}

func (a *app) run(args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.Execute()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "superforge",
		Short: "Assemble Android super images from a ROM's per-region layouts",
		Long: `superforge builds IMAGES/super.img from the partition images of an
unpacked ROM and its META/super_def.<nvid>.json layouts, using simg2img
to expand sparse images and lpmake to pack the result.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: superforge.yaml in the user config dir or the working directory)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&a.human, "human", false, "human-readable console logs instead of JSON")

	root.AddCommand(
		a.regionsCommand(),
		a.partitionsCommand(),
		a.buildCommand(),
		a.inspectCommand(),
		a.rawprogramCommand(),
		a.inventoryCommand(),
		a.configCommand(),
	)
	return root
}

// setup loads settings and configures logging before any command runs.
// Command-line flags win over the config file and environment.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(config.LoadOptions{File: a.configFile})
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = a.debug
	}
	if cmd.Flags().Changed("human") {
		cfg.Log.Human = a.human
	}
	a.cfg, a.cfgPath = cfg, path

	logging.Init(cfg.Log.Debug, cfg.Log.Human)
	logctx.SetDefaultLogger(*logging.L())
	return nil
}
