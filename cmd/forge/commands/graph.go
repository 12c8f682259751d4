package commands

import (
	"fmt"

	"github.com/forgebuild/forge/internal/engine/composer"
	"github.com/spf13/cobra"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [stages...]",
		Short: "Print the stages required for the given targets, in execution order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := args
			if len(targets) == 0 {
				targets = composer.TerminalStages()
			}
			lines, err := c.app.Plan(targets)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}
