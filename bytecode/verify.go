package bytecode

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/ilweave/op"
)

// ErrInvalidBody is wrapped by every problem reported by Verify.
var ErrInvalidBody = errors.New("invalid method body")

// Verify checks the structure of a committed method body and returns every
// problem found, aggregated into a single error. It returns nil for a
// well-formed body. Verify does not simulate the evaluation stack.
func Verify(m *Method) error {
	var result *multierror.Error
	body := m.Body()
	offsets := body.Offsets()

	problem := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrInvalidBody, fmt.Sprintf(format, args...)))
	}

	for i, ins := range body.instructions {
		if ins == nil {
			problem("IL_%04x: nil instruction", i)
			continue
		}
		if first := offsets[ins]; first != i {
			problem("IL_%04x: instruction already appended at IL_%04x", i, first)
		}
		info := op.GetInfo(ins.OpCode)
		if info.Name == "" {
			problem("IL_%04x: unknown opcode %d", i, uint16(ins.OpCode))
			continue
		}
		switch info.Operand {
		case op.OperandNone:
			if ins.Operand != nil {
				problem("IL_%04x: %s takes no operand", i, info.Name)
			}
		case op.OperandBranch:
			target, ok := ins.Operand.(*Instruction)
			if !ok || target == nil {
				problem("IL_%04x: %s requires a target instruction", i, info.Name)
			} else if _, found := offsets[target]; !found {
				problem("IL_%04x: %s target is not part of the body", i, info.Name)
			}
		case op.OperandBranchTable:
			targets, ok := ins.Operand.([]*Instruction)
			if !ok {
				problem("IL_%04x: %s requires a target table", i, info.Name)
				break
			}
			for n, target := range targets {
				if _, found := offsets[target]; !found {
					problem("IL_%04x: %s case %d target is not part of the body", i, info.Name, n)
				}
			}
		case op.OperandInt:
			if _, ok := ins.Operand.(int32); !ok {
				problem("IL_%04x: %s requires an int32 operand", i, info.Name)
			}
		case op.OperandString:
			if _, ok := ins.Operand.(string); !ok {
				problem("IL_%04x: %s requires a string operand", i, info.Name)
			}
		case op.OperandArg:
			idx, ok := ins.Operand.(int)
			if !ok || idx < 0 || idx >= m.ParameterCount() {
				problem("IL_%04x: %s argument index out of range", i, info.Name)
			}
		case op.OperandLocal:
			v, ok := ins.Operand.(*Variable)
			if !ok || v == nil {
				problem("IL_%04x: %s requires a variable", i, info.Name)
			} else if !body.variables.Contains(v) {
				problem("IL_%04x: %s variable %s is not declared", i, info.Name, v)
			}
		case op.OperandType:
			if t, ok := ins.Operand.(*TypeRef); !ok || t == nil {
				problem("IL_%04x: %s requires a type", i, info.Name)
			}
		case op.OperandMethod:
			if callee, ok := ins.Operand.(*Method); !ok || callee == nil {
				problem("IL_%04x: %s requires a method", i, info.Name)
			}
		}
	}

	for n, h := range body.exceptionHandlers {
		verifyHandler(n, h, offsets, len(body.instructions), problem)
	}
	return result.ErrorOrNil()
}

func verifyHandler(n int, h *ExceptionHandler, offsets map[*Instruction]int, count int, problem func(string, ...any)) {
	if h.Kind != HandlerCatch {
		problem("handler %d: unsupported kind %s", n, h.Kind)
	}
	if h.CatchType == nil {
		problem("handler %d: missing catch type", n)
	}
	bounds := []struct {
		name     string
		ins      *Instruction
		optional bool
	}{
		{"try start", h.TryStart, false},
		{"try end", h.TryEnd, false},
		{"handler start", h.HandlerStart, false},
		{"handler end", h.HandlerEnd, true},
	}
	last := -1
	for _, bound := range bounds {
		pos := count
		if bound.ins == nil {
			if !bound.optional {
				problem("handler %d: %s is not set", n, bound.name)
				continue
			}
		} else {
			idx, ok := offsets[bound.ins]
			if !ok {
				problem("handler %d: %s is not part of the body", n, bound.name)
				continue
			}
			pos = idx
		}
		if pos < last {
			problem("handler %d: %s precedes the previous boundary", n, bound.name)
		}
		last = pos
	}
}
