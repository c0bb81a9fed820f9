package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

// frame is the activation record of one method call.
type frame struct {
	method   *bytecode.Method
	code     []*bytecode.Instruction
	offsets  map[*bytecode.Instruction]int
	handlers []*bytecode.ExceptionHandler
	args     []any
	locals   []any
	stack    []any
	ip       int
}

func newFrame(m *bytecode.Method, args []any) *frame {
	body := m.Body()
	handlers := make([]*bytecode.ExceptionHandler, body.ExceptionHandlerCount())
	for i := range handlers {
		handlers[i] = body.ExceptionHandlerAt(i)
	}
	return &frame{
		method:   m,
		code:     body.Instructions(),
		offsets:  body.Offsets(),
		handlers: handlers,
		args:     args,
		locals:   make([]any, body.Variables().Len()),
	}
}

func (f *frame) invalid(msg string) error {
	return fmt.Errorf("%w: %s IL_%04x: %s", ErrInvalidProgram, f.method.FullName(), f.ip, msg)
}

func (f *frame) push(v any) error {
	if len(f.stack) >= MaxStackDepth {
		return f.invalid("evaluation stack overflow")
	}
	f.stack = append(f.stack, v)
	return nil
}

func (f *frame) pop() (any, error) {
	n := len(f.stack)
	if n == 0 {
		return nil, f.invalid("evaluation stack underflow")
	}
	v := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return v, nil
}

func (f *frame) peek() (any, error) {
	if len(f.stack) == 0 {
		return nil, f.invalid("evaluation stack underflow")
	}
	return f.stack[len(f.stack)-1], nil
}

// popN pops n values and returns them in push order.
func (f *frame) popN(n int) ([]any, error) {
	if len(f.stack) < n {
		return nil, f.invalid("evaluation stack underflow")
	}
	start := len(f.stack) - n
	values := make([]any, n)
	copy(values, f.stack[start:])
	f.stack = f.stack[:start]
	return values, nil
}

func (f *frame) popInt() (int32, error) {
	v, err := f.pop()
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int32:
		return v, nil
	case bool:
		return boolToInt(v), nil
	default:
		return 0, f.invalid(fmt.Sprintf("expected int32, got %T", v))
	}
}

func (f *frame) arith(code op.Code) error {
	b, err := f.popInt()
	if err != nil {
		return err
	}
	a, err := f.popInt()
	if err != nil {
		return err
	}
	var result int32
	switch code {
	case op.Add:
		result = a + b
	case op.Sub:
		result = a - b
	case op.Mul:
		result = a * b
	case op.Clt:
		result = boolToInt(a < b)
	case op.Cgt:
		result = boolToInt(a > b)
	}
	return f.push(result)
}

// target returns the position of a branch target. Verification guarantees
// that every target is part of the body.
func (f *frame) target(ins *bytecode.Instruction) int {
	return f.offsets[ins]
}

func (f *frame) local(ins *bytecode.Instruction) int {
	return f.method.Body().Variables().IndexOf(ins.Operand.(*bytecode.Variable))
}

func (f *frame) newException(t *bytecode.TypeRef) (*Exception, error) {
	if !t.IsAssignableTo(bytecode.ExceptionType) {
		return nil, f.invalid(fmt.Sprintf("newobj of non-exception type %s", t.FullName()))
	}
	v, err := f.pop()
	if err != nil {
		return nil, err
	}
	msg, ok := v.(string)
	if !ok && v != nil {
		return nil, f.invalid(fmt.Sprintf("exception message must be a string, got %T", v))
	}
	return &Exception{Type: t, Message: msg}, nil
}

// unwind finds the innermost handler whose protected range covers the
// current instruction and whose catch type accepts exc. The stack is reset
// to hold only the exception and the handler position is returned. If no
// handler matches, the frame is recorded on exc and exc is returned as the
// error.
func (f *frame) unwind(exc *Exception) (int, error) {
	var best *bytecode.ExceptionHandler
	bestSize := -1
	for _, h := range f.handlers {
		start, ok := f.offsets[h.TryStart]
		if !ok {
			continue
		}
		end, ok := f.offsets[h.TryEnd]
		if !ok {
			continue
		}
		if f.ip < start || f.ip >= end {
			continue
		}
		if !exc.Type.IsAssignableTo(h.CatchType) {
			continue
		}
		if best == nil || end-start < bestSize {
			best, bestSize = h, end-start
		}
	}
	if best == nil {
		exc.Stack = append(exc.Stack, StackFrame{Method: f.method.FullName(), Offset: f.ip})
		return 0, exc
	}
	f.stack = append(f.stack[:0], exc)
	return f.offsets[best.HandlerStart], nil
}
