// Package repl implements the interactive read-compile-execute-print
// loop described by the core's CLI surface: a persistent environment
// that accumulates top-level defines across lines, printing each
// line's external representation unless it evaluates to Void. Line
// editing and history are provided by github.com/peterh/liner.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/yourfavoritedev/goscheme/builtins"
	"github.com/yourfavoritedev/goscheme/compiler"
	"github.com/yourfavoritedev/goscheme/disasm"
	"github.com/yourfavoritedev/goscheme/parser"
	"github.com/yourfavoritedev/goscheme/value"
	"github.com/yourfavoritedev/goscheme/vm"
)

const prompt = "scheme> "

// Start runs the REPL against out (used for both the prompt/results
// and whatever display/newline write to) until the user sends EOF
// (Ctrl-D) or types :quit.
func Start(out io.Writer) {
	env := value.NewEnvironment()
	builtins.Install(env, out)
	machine := vm.New(env)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt(prompt)
		if err != nil { // io.EOF or liner.ErrPromptAborted
			return
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == ":quit" {
			return
		}
		if handled := handleMeta(input, env, out); handled {
			continue
		}

		result, err := evalLine(env, machine, input)
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
			continue
		}
		if _, isVoid := result.(value.Void); !isVoid {
			fmt.Fprintln(out, result.Repr())
		}
	}
}

// handleMeta intercepts :disasm, the only meta-command besides :quit
// (handled directly in Start); everything else is handed to the
// compiler as Scheme source.
func handleMeta(input string, env *value.Environment, out io.Writer) bool {
	switch {
	case strings.HasPrefix(input, ":disasm "):
		src := strings.TrimPrefix(input, ":disasm ")
		expr, err := parser.ParseOne(src)
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
			return true
		}
		closure, err := compiler.Compile(env, expr)
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
			return true
		}
		fmt.Fprintln(out, disasm.Tree(closure.Proc, env))
		return true
	}
	return false
}

func evalLine(env *value.Environment, machine *vm.VM, input string) (value.Value, error) {
	expr, err := parser.Parse(input)
	if err != nil {
		return nil, err
	}
	closure, err := compiler.Compile(env, expr)
	if err != nil {
		return nil, err
	}
	return machine.Eval(closure)
}
