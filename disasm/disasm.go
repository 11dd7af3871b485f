// Package disasm renders a compiled procedure's bytecode as an
// indented tree, recursing into any nested procedure prototypes it
// references via CreateClosure. This is additive debugging tooling
// invoked from the REPL's :disasm meta-command; it is not part of the
// core's required surface.
package disasm

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/yourfavoritedev/goscheme/code"
	"github.com/yourfavoritedev/goscheme/value"
)

// Tree builds a human-readable disassembly of proc, labeling each
// instruction with its offset, opcode and operands, and recursing
// into every procedure prototype proc's CreateClosure instructions
// reference.
func Tree(proc *value.Procedure, env *value.Environment) string {
	root := treeprint.New()
	root.SetValue(fmt.Sprintf("procedure(arity=%d variadic=%t locals=%d upvalues=%d)",
		proc.Signature.Arity, proc.Signature.Variadic, proc.LocalCount, proc.UpValueCount))
	addInstructions(root, proc, env, map[*value.Procedure]bool{proc: true})
	return root.String()
}

func addInstructions(node treeprint.Tree, proc *value.Procedure, env *value.Environment, visited map[*value.Procedure]bool) {
	ins := code.Instructions(proc.Code)
	lines := ins.String()
	node.AddNode(lines)

	i := 0
	for i < len(ins) {
		def, err := code.Lookup(ins[i])
		if err != nil {
			return
		}
		operands, read := code.ReadOperands(def, ins[i+1:])
		if code.Opcode(ins[i]) == code.CreateClosure {
			procId := value.ProcId(operands[0])
			if int(procId) < len(env.Procedures) {
				nested := env.Procedure(procId)
				if !visited[nested] {
					visited[nested] = true
					child := node.AddBranch(fmt.Sprintf("closure -> proc #%d", procId))
					addInstructions(child, nested, env, visited)
				}
			}
		}
		i += 1 + read
	}
}
