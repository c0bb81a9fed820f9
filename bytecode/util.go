package bytecode

// copyInstructions returns a copy of the given instruction slice.
func copyInstructions(src []*Instruction) []*Instruction {
	if src == nil {
		return nil
	}
	dst := make([]*Instruction, len(src))
	copy(dst, src)
	return dst
}

// copyVariables returns a copy of the given variable slice.
func copyVariables(src []*Variable) []*Variable {
	if src == nil {
		return nil
	}
	dst := make([]*Variable, len(src))
	copy(dst, src)
	return dst
}

// copyParameters returns a copy of the given parameter slice.
func copyParameters(src []*Parameter) []*Parameter {
	if src == nil {
		return nil
	}
	dst := make([]*Parameter, len(src))
	copy(dst, src)
	return dst
}
