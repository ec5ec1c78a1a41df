package cmd

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/treesh/core"
	"github.com/josephlewis42/treesh/core/eval"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the commands that don't start a program.
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of treesh.",
	RunE: func(cmd *cobra.Command, args []string) error {
		builtins := eval.BuiltinNames()

		for name := range core.AllBuiltins {
			builtins = append(builtins, "shell:"+name)
		}

		sort.Strings(builtins)

		for _, v := range builtins {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
