package builder

import "github.com/deepnoodle-ai/ilweave/bytecode"

// AddVariable declares v in the method's variable table. Any existing
// entry for the same variable is removed first, so a variable is never
// listed twice. Distinct variables of the same type are kept.
func (b *MethodBuilder) AddVariable(v *bytecode.Variable) *MethodBuilder {
	vars := b.method.Body().Variables()
	if b.method.Body().HasVariables() {
		vars.Remove(v)
	}
	vars.Add(v)
	return b
}

// AddVariables declares each variable in order. Unlike AddVariable it does
// not remove existing entries, so passing an already declared variable
// lists it twice.
func (b *MethodBuilder) AddVariables(variables ...*bytecode.Variable) *MethodBuilder {
	vars := b.method.Body().Variables()
	for _, v := range variables {
		vars.Add(v)
	}
	return b
}
