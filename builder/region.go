package builder

import "github.com/deepnoodle-ai/ilweave/bytecode"

// Region records the boundaries of one protected range and its handler.
// Each field is the instruction that was last appended when the
// corresponding Set method was called.
type Region struct {
	TryStart    *bytecode.Instruction
	TryEnd      *bytecode.Instruction
	HandleStart *bytecode.Instruction
	HandleEnd   *bytecode.Instruction
}

// Complete reports whether all four boundaries have been recorded.
func (r Region) Complete() bool {
	return r.TryStart != nil && r.TryEnd != nil && r.HandleStart != nil && r.HandleEnd != nil
}

// SetTryStart marks the last appended instruction as the start of the
// protected range.
func (b *MethodBuilder) SetTryStart() *MethodBuilder {
	b.root().region.TryStart = b.Last()
	return b
}

// SetTryEnd marks the last appended instruction as the end of the
// protected range.
func (b *MethodBuilder) SetTryEnd() *MethodBuilder {
	b.root().region.TryEnd = b.Last()
	return b
}

// SetHandleStart marks the last appended instruction as the start of the
// handler.
func (b *MethodBuilder) SetHandleStart() *MethodBuilder {
	b.root().region.HandleStart = b.Last()
	return b
}

// SetHandleEnd marks the last appended instruction as the end of the
// handler.
func (b *MethodBuilder) SetHandleEnd() *MethodBuilder {
	b.root().region.HandleEnd = b.Last()
	return b
}

// Region returns the boundaries recorded so far.
func (b *MethodBuilder) Region() Region {
	return b.root().region
}

// AddExceptionVariable declares v in the method's variable table and uses
// its type as the catch type of the handler created by Build.
func (b *MethodBuilder) AddExceptionVariable(v *bytecode.Variable) *MethodBuilder {
	root := b.root()
	root.exceptionVar = v
	b.method.Body().Variables().Add(v)
	return b
}

// ExceptionVariable returns the catch variable, or nil.
func (b *MethodBuilder) ExceptionVariable() *bytecode.Variable {
	return b.root().exceptionVar
}

func (b *MethodBuilder) root() *MethodBuilder {
	for b.parent != nil {
		b = b.parent
	}
	return b
}
