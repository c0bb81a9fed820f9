package builder

import (
	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

// Goto appends a branch with the given opcode to target, runs body against
// the builder, then appends target as the landing point.
func (b *MethodBuilder) Goto(code op.Code, target *bytecode.Instruction, body func(*MethodBuilder)) *MethodBuilder {
	b.Append(b.Create(code, target))
	if body != nil {
		body(b)
	}
	return b.Append(target)
}

// IfElseTrue consumes a condition from the stack and emits
//
//	brtrue T0
//	F...
//	br end
//	T...
//	end: nop
//
// so that exactly one of the two lists runs before control reaches end.
func (b *MethodBuilder) IfElseTrue(onTrue, onFalse ListFunc) *MethodBuilder {
	end := b.Create(op.Nop, nil)
	trueList := b.materialize(onTrue)
	falseList := b.materialize(onFalse)
	b.Append(b.Create(op.BrTrue, trueList[0]))
	b.AppendRange(falseList...)
	b.Append(b.Create(op.Br, end))
	b.AppendRange(trueList...)
	return b.Append(end)
}

// IfFalse consumes a condition from the stack and emits
//
//	brfalse F0
//	T...
//	F...
//
// No branch separates the two lists: unless the true list ends by
// transferring control itself, a true condition runs the true list and then
// the false list. Use IfElse for conventional if/else semantics.
func (b *MethodBuilder) IfFalse(onTrue, onFalse ListFunc) *MethodBuilder {
	trueList := b.materialize(onTrue)
	falseList := b.materialize(onFalse)
	b.Append(b.Create(op.BrFalse, falseList[0]))
	b.AppendRange(trueList...)
	return b.AppendRange(falseList...)
}

// IfElse is the structured form of IfFalse: it emits
//
//	brfalse F0
//	T...
//	br end
//	F...
//	end: nop
//
// so that a true condition skips the false list.
func (b *MethodBuilder) IfElse(onTrue, onFalse ListFunc) *MethodBuilder {
	end := b.Create(op.Nop, nil)
	trueList := b.materialize(onTrue)
	falseList := b.materialize(onFalse)
	b.Append(b.Create(op.BrFalse, falseList[0]))
	b.AppendRange(trueList...)
	b.Append(b.Create(op.Br, end))
	b.AppendRange(falseList...)
	return b.Append(end)
}

// Switch consumes an int32 from the stack and dispatches to the case with
// that index, or to the default list when the value is out of range:
//
//	switch (C0_0, C1_0, ...)
//	br D0
//	nop
//	C0...
//	nop
//	C1...
//	nop
//	D...
//	nop
//
// Cases are not isolated from each other: a case list that does not end by
// transferring control falls into the next case.
func (b *MethodBuilder) Switch(onDefault ListFunc, cases ...ListFunc) *MethodBuilder {
	caseLists := make([][]*bytecode.Instruction, len(cases))
	targets := make([]*bytecode.Instruction, len(cases))
	for i, fn := range cases {
		caseLists[i] = b.materialize(fn)
		targets[i] = caseLists[i][0]
	}
	defaultList := b.materialize(onDefault)

	b.Append(b.Create(op.Switch, targets))
	b.Append(b.Create(op.Br, defaultList[0]))
	b.Append(b.Create(op.Nop, nil))
	for _, list := range caseLists {
		b.AppendRange(list...)
		b.Append(b.Create(op.Nop, nil))
	}
	b.AppendRange(defaultList...)
	return b.Append(b.Create(op.Nop, nil))
}

// materialize runs fn and returns its list. A nil callback or an empty list
// is replaced by a single nop so that the list always has a first
// instruction to branch to.
func (b *MethodBuilder) materialize(fn ListFunc) []*bytecode.Instruction {
	var list []*bytecode.Instruction
	if fn != nil {
		list = fn()
	}
	if len(list) == 0 {
		return []*bytecode.Instruction{b.Create(op.Nop, nil)}
	}
	return list
}
