package terminal

import (
	"io"
	"os"

	"github.com/de-tools/sql-atlas/pkg/runtime/terminal/commands"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{}
	cli.rootCmd = cli.newRootCmd(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd(output io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql-atlas",
		Short: "Azure SQL estate provisioning tool",
	}

	cmd.AddCommand(commands.NewApplyCmd(output))
	cmd.AddCommand(commands.NewFirewallCmd(output))
	cmd.AddCommand(commands.NewCostCmd(output))

	return cmd
}
