package bytecode

// Stats contains statistics about a method body.
// This is useful for auditing woven methods before execution.
type Stats struct {
	// InstructionCount is the number of committed instructions.
	InstructionCount int

	// BranchCount is the number of instructions that branch.
	BranchCount int

	// ConditionalCount is the number of branches that may fall through.
	ConditionalCount int

	// UnreachableCount is the number of instructions that no path from the
	// first instruction or a handler start can reach.
	UnreachableCount int

	// VariableCount is the number of declared local variables.
	VariableCount int

	// HandlerCount is the number of exception handlers.
	HandlerCount int
}

// Stats returns statistics about the method body.
func (b *Body) Stats() Stats {
	branches, conditionals := 0, 0
	for _, ins := range b.instructions {
		if ins == nil {
			continue
		}
		if ins.OpCode.IsBranch() {
			branches++
		}
		if ins.OpCode.IsConditional() {
			conditionals++
		}
	}
	unreachable := 0
	for _, ok := range b.reachable() {
		if !ok {
			unreachable++
		}
	}
	return Stats{
		InstructionCount: len(b.instructions),
		BranchCount:      branches,
		ConditionalCount: conditionals,
		UnreachableCount: unreachable,
		VariableCount:    b.variables.Len(),
		HandlerCount:     len(b.exceptionHandlers),
	}
}

// reachable marks each position reached by following fall-through and
// branch targets from the first instruction and every handler start.
func (b *Body) reachable() []bool {
	n := len(b.instructions)
	seen := make([]bool, n)
	if n == 0 {
		return seen
	}
	offsets := b.Offsets()
	work := []int{0}
	for _, h := range b.exceptionHandlers {
		if pos, ok := offsets[h.HandlerStart]; ok {
			work = append(work, pos)
		}
	}
	for len(work) > 0 {
		pos := work[len(work)-1]
		work = work[:len(work)-1]
		if pos >= n || seen[pos] {
			continue
		}
		seen[pos] = true
		ins := b.instructions[pos]
		if ins == nil {
			continue
		}
		for _, target := range ins.Targets() {
			if next, ok := offsets[target]; ok {
				work = append(work, next)
			}
		}
		if !ins.OpCode.EndsFlow() {
			work = append(work, pos+1)
		}
	}
	return seen
}
