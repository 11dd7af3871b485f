// Command goscheme is the engine's CLI surface: given a file path it
// compiles and runs that file, exiting with a non-zero status on
// error; given no arguments it starts the interactive REPL. There are
// no other flags, environment variables, or persisted state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourfavoritedev/goscheme/builtins"
	"github.com/yourfavoritedev/goscheme/compiler"
	"github.com/yourfavoritedev/goscheme/parser"
	"github.com/yourfavoritedev/goscheme/repl"
	"github.com/yourfavoritedev/goscheme/scmerr"
	"github.com/yourfavoritedev/goscheme/value"
	"github.com/yourfavoritedev/goscheme/vm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "goscheme [file]",
		Short:         "A single-pass compiler and bytecode VM for a small Scheme core",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				repl.Start(os.Stdout)
				return nil
			}
			return runFile(args[0])
		},
	}
	return cmd
}

func runFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	env := value.NewEnvironment()
	builtins.Install(env, os.Stdout)

	expr, err := parser.Parse(string(source))
	if err != nil {
		return scmerr.Wrap(err, path)
	}

	closure, err := compiler.Compile(env, expr)
	if err != nil {
		return scmerr.Wrap(err, path)
	}

	machine := vm.New(env)
	if _, err := machine.Eval(closure); err != nil {
		return scmerr.Wrap(err, path)
	}
	return nil
}
