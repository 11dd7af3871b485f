// Package vm implements the stack machine that executes bytecode
// compiled by the compiler package: two stacks (an operand stack of
// value.Value and a call-frame stack), a dispatch loop that consumes
// one instruction at a time, and the logic that opens and closes
// up-values as closures are created and as frames return.
package vm

import (
	"github.com/yourfavoritedev/goscheme/code"
	"github.com/yourfavoritedev/goscheme/scmerr"
	"github.com/yourfavoritedev/goscheme/value"
)

// StackSize bounds the operand stack. MaxFrames bounds call-frame
// recursion depth; there is no tail-call elimination, so deep
// non-tail recursion exhausts this.
const (
	StackSize = 4096
	MaxFrames = 1024
)

// VM is a single, reusable machine bound to one Environment. It is
// not safe for concurrent use: the core's execution model is
// synchronous and single-threaded (no goroutines touch the operand
// stack or call-frame stack at once).
type VM struct {
	env     *value.Environment
	operand []value.Value
	frames  []*Frame
}

// New creates a VM bound to env. The same VM can run multiple
// top-level closures in sequence (the REPL case) as long as each call
// to Eval/Call completes before the next begins.
func New(env *value.Environment) *VM {
	return &VM{env: env}
}

// Eval executes a zero-argument closure, such as the one compiler.Compile
// returns for a top-level program or REPL line, to completion and
// returns its result. It is an error to call Eval (or Call) while the
// VM is already executing a closure; the core does not support
// re-entrant execution.
func (vm *VM) Eval(closure *value.Closure) (value.Value, error) {
	return vm.invoke(closure, nil)
}

// Call invokes closure with the given already-evaluated arguments,
// the embedding entry point for host code that needs to apply a
// Scheme procedure value directly. Like Eval, it is rejected while the
// VM is already executing a closure.
func (vm *VM) Call(closure *value.Closure, args []value.Value) (value.Value, error) {
	return vm.invoke(closure, args)
}

func (vm *VM) invoke(closure *value.Closure, args []value.Value) (value.Value, error) {
	if len(vm.frames) != 0 {
		return nil, scmerr.NewRuntimeError("machine is already executing a closure")
	}

	vm.operand = vm.operand[:0]
	if err := vm.push(closure); err != nil {
		return nil, err
	}
	for _, a := range args {
		if err := vm.push(a); err != nil {
			return nil, err
		}
	}

	lo := len(vm.operand) - len(args)
	frame, err := vm.prepareFrame(closure, lo, len(args))
	if err != nil {
		return nil, err
	}
	vm.frames = append(vm.frames, frame)

	result, err := vm.run()
	vm.frames = nil
	return result, err
}

// run is the outer driver: it repeatedly executes the current frame
// until it signals a nested Call (in which case a new frame is pushed
// and the loop continues) or a Return (in which case up-values are
// closed, the stack is truncated, and either the caller's frame
// resumes or, if this was the last frame, the machine is done).
func (vm *VM) run() (value.Value, error) {
	for {
		frame := vm.frames[len(vm.frames)-1]
		action, err := vm.runInstructions(frame)
		if err != nil {
			return nil, err
		}

		switch action.kind {
		case actionCall:
			if len(vm.frames) >= MaxFrames {
				return nil, scmerr.NewRuntimeError("call stack overflow")
			}
			newFrame, err := vm.prepareFrame(action.closure, action.lo, action.argCount)
			if err != nil {
				return nil, err
			}
			vm.frames = append(vm.frames, newFrame)

		case actionReturn:
			for _, uv := range frame.OpenUpValues {
				uv.Close(vm.operand[uv.Index])
			}
			truncateTo := frame.StackOffset - 1
			vm.operand = vm.operand[:truncateTo]
			if err := vm.push(action.result); err != nil {
				return nil, err
			}
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return action.result, nil
			}
		}
	}
}

// prepareFrame validates the argument count against the callee's
// signature, collects any variadic surplus into a cons list bound to
// the rest parameter's slot, fills the remaining local slots with
// Void, and builds the new Frame.
func (vm *VM) prepareFrame(cl *value.Closure, lo, argCount int) (*Frame, error) {
	sig := cl.Proc.Signature

	if !sig.Variadic {
		if argCount != sig.Arity {
			return nil, scmerr.NewRuntimeError("wrong number of arguments: expected %d, got %d", sig.Arity, argCount)
		}
	} else {
		if argCount < sig.Arity {
			return nil, scmerr.NewRuntimeError("wrong number of arguments: expected at least %d, got %d", sig.Arity, argCount)
		}
		rest := append([]value.Value{}, vm.operand[lo+sig.Arity:lo+argCount]...)
		restList := value.ListFromSlice(rest)
		vm.operand = vm.operand[:lo+sig.Arity]
		if err := vm.push(restList); err != nil {
			return nil, err
		}
	}

	filled := sig.Arity
	if sig.Variadic {
		filled++
	}
	for i := filled; i < cl.Proc.LocalCount; i++ {
		if err := vm.push(value.Void{}); err != nil {
			return nil, err
		}
	}

	return newFrame(cl, lo), nil
}

type actionKind int

const (
	actionReturn actionKind = iota
	actionCall
)

// procAction is what runInstructions yields back to run: either a
// finished Return with its result value, or a pending Call naming the
// callee and where its arguments already sit on the operand stack.
// Keeping this as a returned value rather than performing the frame
// push/pop inline in runInstructions keeps the hot instruction-dispatch
// loop free of call-frame bookkeeping.
type procAction struct {
	kind     actionKind
	result   value.Value
	closure  *value.Closure
	lo       int
	argCount int
}

// runInstructions executes frame's closure starting at frame.PC until
// a Return or a Call needs to cross back out to run's driver loop.
func (vm *VM) runInstructions(frame *Frame) (procAction, error) {
	closure := frame.Closure
	proc := closure.Proc
	env := proc.Env.Upgrade()
	ins := code.Instructions(proc.Code)
	pc := frame.PC

	for {
		op := code.Opcode(ins[pc])

		switch op {
		case code.PushNil:
			if err := vm.push(value.Nil{}); err != nil {
				return procAction{}, err
			}
			pc++

		case code.PushVoid:
			if err := vm.push(value.Void{}); err != nil {
				return procAction{}, err
			}
			pc++

		case code.PushTrue:
			if err := vm.push(value.Bool(true)); err != nil {
				return procAction{}, err
			}
			pc++

		case code.PushFalse:
			if err := vm.push(value.Bool(false)); err != nil {
				return procAction{}, err
			}
			pc++

		case code.PushConstant:
			id := code.ReadUint16(ins[pc+1:])
			if int(id) >= len(proc.Constants) {
				return procAction{}, scmerr.NewRuntimeError("constant index out of range: %d", id)
			}
			if err := vm.push(proc.Constants[id]); err != nil {
				return procAction{}, err
			}
			pc += 3

		case code.Pop:
			vm.pop()
			pc++

		case code.End, code.Return:
			result := vm.pop()
			frame.PC = pc
			return procAction{kind: actionReturn, result: result}, nil

		case code.Jump:
			target := code.ReadUint24(ins[pc+1:])
			pc = int(target)

		case code.JumpFalse:
			target := code.ReadUint24(ins[pc+1:])
			if !value.IsTruthy(vm.top()) {
				pc = int(target)
			} else {
				pc += 4
			}

		case code.LoadEnvVar:
			id := code.ReadUint16(ins[pc+1:])
			if err := vm.push(env.GetVar(value.SymbolId(id))); err != nil {
				return procAction{}, err
			}
			pc += 3

		case code.StoreEnvVar:
			id := code.ReadUint16(ins[pc+1:])
			env.SetVar(value.SymbolId(id), vm.top())
			pc += 3

		case code.LoadLocalVar:
			slot := ins[pc+1]
			if err := vm.push(vm.operand[frame.StackOffset+int(slot)]); err != nil {
				return procAction{}, err
			}
			pc += 2

		case code.StoreLocalVar:
			slot := ins[pc+1]
			vm.operand[frame.StackOffset+int(slot)] = vm.top()
			pc += 2

		case code.LoadUpValue:
			id := ins[pc+1]
			uv := closure.UpValues[id]
			if err := vm.push(vm.readUpValue(uv)); err != nil {
				return procAction{}, err
			}
			pc += 2

		case code.StoreUpValue:
			id := ins[pc+1]
			uv := closure.UpValues[id]
			vm.writeUpValue(uv, vm.top())
			pc += 2

		case code.CaptureValue:
			return procAction{}, scmerr.NewRuntimeError("CaptureValue encountered outside CreateClosure")

		case code.CreateClosure:
			procId := code.ReadUint16(ins[pc+1:])
			if int(procId) >= len(env.Procedures) {
				return procAction{}, scmerr.NewRuntimeError("procedure index out of range: %d", procId)
			}
			proto := env.Procedure(value.ProcId(procId))

			cursor := pc + 3
			upValues := make([]*value.UpValue, proto.UpValueCount)
			for i := 0; i < proto.UpValueCount; i++ {
				if code.Opcode(ins[cursor]) != code.CaptureValue {
					return procAction{}, scmerr.NewRuntimeError("expected CaptureValue instruction while building closure")
				}
				origin := ins[cursor+1]
				id := ins[cursor+2]
				if origin == code.CaptureParent {
					absIndex := frame.StackOffset + int(id)
					uv := frame.openUpValueAt(absIndex)
					if uv == nil {
						uv = value.NewOpenUpValue(absIndex)
						frame.OpenUpValues = append(frame.OpenUpValues, uv)
					}
					upValues[i] = uv
				} else {
					upValues[i] = closure.UpValues[id]
				}
				cursor += 3
			}

			if err := vm.push(value.NewClosure(proto, upValues)); err != nil {
				return procAction{}, err
			}
			pc = cursor

		case code.CallClosure:
			arity := int(ins[pc+1])
			lo := len(vm.operand) - arity
			callee, ok := vm.operand[lo-1].(*value.Closure)
			if !ok {
				return procAction{}, scmerr.NewRuntimeError("attempt to call a non-procedure")
			}
			frame.PC = pc + 2
			return procAction{kind: actionCall, closure: callee, lo: lo, argCount: arity}, nil

		case code.CallNative:
			arity := int(ins[pc+1])
			lo := len(vm.operand) - arity
			switch callee := vm.operand[lo-1].(type) {
			case value.NativeFunc:
				args := append([]value.Value{}, vm.operand[lo:lo+arity]...)
				result, err := callee.Fn(env, args)
				if err != nil {
					return procAction{}, err
				}
				vm.operand = vm.operand[:lo-1]
				if err := vm.push(result); err != nil {
					return procAction{}, err
				}
				pc += 2
			case *value.Closure:
				frame.PC = pc + 2
				return procAction{kind: actionCall, closure: callee, lo: lo, argCount: arity}, nil
			default:
				return procAction{}, scmerr.NewRuntimeError("attempt to call a non-procedure")
			}

		default:
			return procAction{}, scmerr.NewRuntimeError("unknown opcode %d", op)
		}
	}
}

func (vm *VM) readUpValue(uv *value.UpValue) value.Value {
	if uv.State == value.UpValueOpen {
		return vm.operand[uv.Index]
	}
	return uv.Closed
}

func (vm *VM) writeUpValue(uv *value.UpValue, v value.Value) {
	if uv.State == value.UpValueOpen {
		vm.operand[uv.Index] = v
	} else {
		uv.Closed = v
	}
}

func (vm *VM) push(v value.Value) error {
	if len(vm.operand) >= StackSize {
		return scmerr.NewRuntimeError("stack overflow")
	}
	vm.operand = append(vm.operand, v)
	return nil
}

func (vm *VM) pop() value.Value {
	n := len(vm.operand) - 1
	v := vm.operand[n]
	vm.operand = vm.operand[:n]
	return v
}

func (vm *VM) top() value.Value {
	return vm.operand[len(vm.operand)-1]
}
