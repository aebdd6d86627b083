// Package commands implements the CLI commands for the kiln build tool.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"go.kiln.build/kiln/internal/app"
	"go.kiln.build/kiln/internal/build"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "A build orchestrator for monorepos",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().String("root", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringP("formatter", "F", "otel", "Console formatter/tracer: otel, progrock, or tui (read before flag parsing; see main.go)")
	rootCmd.PersistentFlags().Bool("inspect", false, "Shorthand for -F tui (read before flag parsing; see main.go)")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newSearchCmd())
	rootCmd.AddCommand(c.newFindTargetCmd())
	rootCmd.AddCommand(c.newTargetInfoCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
