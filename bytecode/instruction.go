package bytecode

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/ilweave/op"
)

// Instruction is a single stack-machine operation. Instructions are
// identity-based: a *Instruction is a unique node that can be used both as
// body content and as a branch target.
//
// The Operand holds, depending on the opcode's operand kind:
//
//	branch        *Instruction
//	branch-table  []*Instruction
//	int           int32
//	string        string
//	arg           int
//	local         *Variable
//	type          *TypeRef
//	method        *Method
type Instruction struct {
	OpCode  op.Code
	Operand any
}

// New creates an instruction that is not yet part of any body.
func New(code op.Code, operand any) *Instruction {
	return &Instruction{OpCode: code, Operand: operand}
}

// Targets returns the instructions this instruction may branch to.
// It returns nil for instructions that do not branch.
func (i *Instruction) Targets() []*Instruction {
	switch operand := i.Operand.(type) {
	case *Instruction:
		if i.OpCode.IsBranch() {
			return []*Instruction{operand}
		}
	case []*Instruction:
		if i.OpCode.IsBranch() {
			return copyInstructions(operand)
		}
	}
	return nil
}

// String returns a readable form of the instruction. Branch targets are
// shown by opcode because offsets are only known once the instruction has
// been committed to a body; see Body.Format for offset-aware output.
func (i *Instruction) String() string {
	return i.format(func(target *Instruction) string {
		if target == nil {
			return "<nil>"
		}
		return "<" + target.OpCode.String() + ">"
	})
}

func (i *Instruction) format(target func(*Instruction) string) string {
	name := i.OpCode.String()
	if i.Operand == nil {
		return name
	}
	switch operand := i.Operand.(type) {
	case *Instruction:
		return name + " " + target(operand)
	case []*Instruction:
		parts := make([]string, len(operand))
		for idx, t := range operand {
			parts[idx] = target(t)
		}
		return name + " (" + strings.Join(parts, ", ") + ")"
	case string:
		return fmt.Sprintf("%s %q", name, operand)
	case *Variable:
		return name + " " + operand.String()
	case *TypeRef:
		return name + " " + operand.FullName()
	case *Method:
		return name + " " + operand.FullName()
	default:
		return fmt.Sprintf("%s %v", name, operand)
	}
}
