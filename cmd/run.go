package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/treesh/core/config"
	"github.com/josephlewis42/treesh/core/eval"
	"github.com/josephlewis42/treesh/core/logger"
	"github.com/josephlewis42/treesh/core/parse"
	"github.com/josephlewis42/treesh/core/tree"
	"github.com/josephlewis42/treesh/core/vos"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	runCommandLine string
	runPrintTree   bool
)

// runCmd evaluates a single command line or a file.
var runCmd = &cobra.Command{
	Use:   "run [-c LINE | FILE]",
	Short: "Evaluate a command line, a script or a tree file.",
	Long: `Evaluate a command line given with -c, a shell script, or a command tree
stored as YAML or JSON (files ending in .yaml, .yml or .json).

The exit status is the status of the tree. Commands killed by a signal
exit with status 156.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		root, err := loadTree(cmd, args)
		if err != nil {
			return err
		}
		if root == nil {
			return nil
		}

		if runPrintTree {
			fmt.Fprintln(cmd.OutOrStdout(), root)
			return nil
		}

		configuration, err := loadConfigOrDefault()
		if err != nil {
			return err
		}

		events, closer, err := openEvents(configuration)
		if err != nil {
			return err
		}
		defer closer.Close()

		evaluator, err := eval.New(eval.Config{
			Env: configuration.NewEnv(os.Environ()),
			IO:  vos.NewVIOAdapter(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
			// exit at the top level just ends the run.
			Exit:   func(int) {},
			Events: events,
			Log:    log.New(cmd.ErrOrStderr(), "treesh: ", 0),
		})
		if err != nil {
			return err
		}

		status := evaluator.Evaluate(root)
		return exitStatus(cmd, eval.ExitCode(status))
	},
}

func loadTree(cmd *cobra.Command, args []string) (*tree.Command, error) {
	switch {
	case cmd.Flags().Changed("command") && len(args) > 0:
		return nil, fmt.Errorf("-c and FILE can't be used together")

	case cmd.Flags().Changed("command"):
		return parse.Line(runCommandLine)

	case len(args) == 0:
		return nil, fmt.Errorf("expected -c LINE or FILE")
	}

	path := args[0]
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return tree.LoadFile(afero.NewOsFs(), path)
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return parse.File(fd, path)
}

// openEvents opens the configured event log for appending.
func openEvents(configuration *config.Configuration) (*logger.SessionLogger, io.Closer, error) {
	fd, err := configuration.OpenEventLog()
	if err != nil {
		return nil, nil, err
	}

	return logger.NewJsonLinesLogRecorder(fd).NewSession(), fd, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runCommandLine, "command", "c", "", "command line to evaluate")
	runCmd.Flags().BoolVar(&runPrintTree, "print-tree", false, "print the parsed tree instead of evaluating it")
}
