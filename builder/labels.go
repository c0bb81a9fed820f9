package builder

import (
	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

// Label returns the landing instruction registered under name, creating a
// nop for it on first use. The instruction can be used as a branch target
// before it is placed.
func (b *MethodBuilder) Label(name string) *bytecode.Instruction {
	if ins, ok := b.labels[name]; ok {
		return ins
	}
	ins := b.Create(op.Nop, nil)
	b.labels[name] = ins
	return ins
}

// PlaceLabel appends the landing instruction registered under name.
func (b *MethodBuilder) PlaceLabel(name string) *MethodBuilder {
	return b.Append(b.Label(name))
}

// ReturnPoint returns the shared exit instruction of the method: a ret, or
// a load of the return variable when one was configured. Branch to it to
// leave the method from any point; place it once with EmitReturn.
func (b *MethodBuilder) ReturnPoint() *bytecode.Instruction {
	return b.returnPoint
}

// ReturnVariable returns the configured return variable, or nil.
func (b *MethodBuilder) ReturnVariable() *bytecode.Variable {
	return b.returnVar
}

// EmitReturn appends the return point, followed by a ret when the return
// point loads the return variable.
func (b *MethodBuilder) EmitReturn() *MethodBuilder {
	b.Append(b.returnPoint)
	if b.returnVar != nil {
		b.Emit(op.Ret, nil)
	}
	return b
}
