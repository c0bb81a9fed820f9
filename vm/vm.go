// Package vm provides a VirtualMachine that executes committed method
// bodies. It is used to check woven methods end to end.
package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

const (
	MaxFrameDepth = 256
	MaxStackDepth = 1024

	// DefaultContextCheckInterval is the number of instructions between
	// checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

var (
	// ErrInvalidProgram is wrapped by errors caused by malformed method
	// bodies: failed verification, stack misuse or operand type mismatches.
	ErrInvalidProgram = errors.New("invalid program")

	// ErrFrameDepth is returned when calls nest deeper than the frame limit.
	ErrFrameDepth = errors.New("maximum frame depth exceeded")

	// ErrHalted is returned when an observer stops execution.
	ErrHalted = errors.New("execution halted by observer")
)

// VirtualMachine executes methods. A VirtualMachine caches verification
// results per method and must not be used by multiple goroutines at once.
type VirtualMachine struct {
	maxFrameDepth        int
	contextCheckInterval int
	observer             Observer
	observerConfig       ObserverConfig
	steps                int64
	verified             map[*bytecode.Method]error
}

// New creates a new Virtual Machine.
func New(options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		maxFrameDepth:        MaxFrameDepth,
		contextCheckInterval: DefaultContextCheckInterval,
		verified:             map[*bytecode.Method]error{},
	}
	for _, opt := range options {
		opt(vm)
	}
	if vm.observer != nil {
		vm.observerConfig = NormalizeConfig(vm.observer.Config())
	}
	return vm
}

// Call invokes method with the given arguments and returns its result, or
// nil for methods that return no value. An exception that escapes the
// method is returned as an *Exception error.
func (vm *VirtualMachine) Call(ctx context.Context, method *bytecode.Method, args ...any) (any, error) {
	values, err := normalizeArgs(args)
	if err != nil {
		return nil, err
	}
	if err := checkCallArgs(method, len(values)); err != nil {
		return nil, err
	}
	return vm.invoke(ctx, method, values, 1)
}

// Steps returns the number of instructions executed so far.
func (vm *VirtualMachine) Steps() int64 {
	return vm.steps
}

func (vm *VirtualMachine) verify(m *bytecode.Method) error {
	if err, ok := vm.verified[m]; ok {
		return err
	}
	err := bytecode.Verify(m)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrInvalidProgram, m.FullName(), err)
	}
	vm.verified[m] = err
	return err
}

func (vm *VirtualMachine) invoke(ctx context.Context, m *bytecode.Method, args []any, depth int) (any, error) {
	if depth > vm.maxFrameDepth {
		return nil, ErrFrameDepth
	}
	if err := vm.verify(m); err != nil {
		return nil, err
	}
	if vm.observer != nil && vm.observerConfig.ObserveCalls {
		if !vm.observer.OnCall(CallEvent{Method: m.FullName(), ArgCount: len(args), FrameDepth: depth}) {
			return nil, ErrHalted
		}
	}
	f := newFrame(m, args)
	result, err := vm.exec(ctx, f, depth)
	if err != nil {
		return nil, err
	}
	if vm.observer != nil && vm.observerConfig.ObserveReturns {
		if !vm.observer.OnReturn(ReturnEvent{Method: m.FullName(), FrameDepth: depth - 1}) {
			return nil, ErrHalted
		}
	}
	return result, nil
}

func (vm *VirtualMachine) exec(ctx context.Context, f *frame, depth int) (any, error) {
	for {
		if f.ip < 0 || f.ip >= len(f.code) {
			return nil, f.invalid("control flow left the method body")
		}
		vm.steps++
		if vm.contextCheckInterval > 0 && vm.steps%int64(vm.contextCheckInterval) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ins := f.code[f.ip]
		if vm.observer != nil && vm.shouldStep() {
			if !vm.observer.OnStep(StepEvent{
				IP:         f.ip,
				Opcode:     ins.OpCode,
				OpcodeName: ins.OpCode.String(),
				Method:     f.method.FullName(),
				StackDepth: len(f.stack),
				FrameDepth: depth,
			}) {
				return nil, ErrHalted
			}
		}

		next := f.ip + 1
		switch ins.OpCode {
		case op.Nop:
		case op.Ret:
			if !f.method.ReturnsValue() {
				return nil, nil
			}
			return f.pop()
		case op.Br:
			next = f.target(ins.Operand.(*bytecode.Instruction))
		case op.BrTrue, op.BrFalse:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			if isTrue(v) == (ins.OpCode == op.BrTrue) {
				next = f.target(ins.Operand.(*bytecode.Instruction))
			}
		case op.Switch:
			v, err := f.popInt()
			if err != nil {
				return nil, err
			}
			targets := ins.Operand.([]*bytecode.Instruction)
			if v >= 0 && int(v) < len(targets) {
				next = f.target(targets[v])
			}
		case op.Leave:
			f.stack = f.stack[:0]
			next = f.target(ins.Operand.(*bytecode.Instruction))
		case op.LdArg:
			if err := f.push(f.args[ins.Operand.(int)]); err != nil {
				return nil, err
			}
		case op.LdLoc:
			if err := f.push(f.locals[f.local(ins)]); err != nil {
				return nil, err
			}
		case op.StLoc:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			f.locals[f.local(ins)] = v
		case op.LdcI4, op.LdStr:
			if err := f.push(ins.Operand); err != nil {
				return nil, err
			}
		case op.LdNull:
			if err := f.push(nil); err != nil {
				return nil, err
			}
		case op.Pop:
			if _, err := f.pop(); err != nil {
				return nil, err
			}
		case op.Dup:
			v, err := f.peek()
			if err != nil {
				return nil, err
			}
			if err := f.push(v); err != nil {
				return nil, err
			}
		case op.Add, op.Sub, op.Mul, op.Clt, op.Cgt:
			if err := f.arith(ins.OpCode); err != nil {
				return nil, err
			}
		case op.Ceq:
			b, err := f.pop()
			if err != nil {
				return nil, err
			}
			a, err := f.pop()
			if err != nil {
				return nil, err
			}
			if err := f.push(boolToInt(a == b)); err != nil {
				return nil, err
			}
		case op.NewObj:
			exc, err := f.newException(ins.Operand.(*bytecode.TypeRef))
			if err != nil {
				return nil, err
			}
			if err := f.push(exc); err != nil {
				return nil, err
			}
		case op.Throw:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			exc, ok := v.(*Exception)
			if !ok {
				return nil, f.invalid(fmt.Sprintf("throw of non-exception value %v", v))
			}
			if next, err = f.unwind(exc); err != nil {
				return nil, err
			}
		case op.Call:
			callee := ins.Operand.(*bytecode.Method)
			args, err := f.popN(callee.ParameterCount())
			if err != nil {
				return nil, err
			}
			result, err := vm.invoke(ctx, callee, args, depth+1)
			if err != nil {
				var exc *Exception
				if !errors.As(err, &exc) {
					return nil, err
				}
				if next, err = f.unwind(exc); err != nil {
					return nil, err
				}
				break
			}
			if callee.ReturnsValue() {
				if err := f.push(result); err != nil {
					return nil, err
				}
			}
		default:
			return nil, f.invalid(fmt.Sprintf("unsupported opcode %s", ins.OpCode))
		}
		f.ip = next
	}
}

func (vm *VirtualMachine) shouldStep() bool {
	switch vm.observerConfig.StepMode {
	case StepAll:
		return true
	case StepSampled:
		return vm.steps%int64(vm.observerConfig.SampleInterval) == 0
	default:
		return false
	}
}

func isTrue(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int32:
		return v != 0
	default:
		return true
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
