package cmd

import (
	"io"
	"os"
	"os/signal"

	"github.com/josephlewis42/treesh/core"
	"github.com/spf13/cobra"
)

// shellCmd starts the interactive shell.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfigOrDefault()
		if err != nil {
			return err
		}

		events, closer, err := openEvents(configuration)
		if err != nil {
			return err
		}
		defer closer.Close()

		stdin, ok := cmd.InOrStdin().(io.ReadCloser)
		if !ok {
			stdin = io.NopCloser(cmd.InOrStdin())
		}

		shell, err := core.NewShell(core.ShellOptions{
			Config:  configuration,
			Stdin:   stdin,
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
			Events:  events,
			Environ: os.Environ(),
		})
		if err != nil {
			return err
		}
		defer shell.Close()

		// Interrupts are meant for the foreground command, not the shell.
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		defer signal.Stop(sigs)
		go func() {
			for range sigs {
			}
		}()

		return exitStatus(cmd, shell.Run()&0xff)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
