package bytecode

import "fmt"

// Variable is a named, typed local storage slot of a method. Variables are
// identity-based like instructions; a variable's slot index is its position
// in the method's variable table.
type Variable struct {
	name string
	typ  *TypeRef
}

// NewVariable creates a variable that is not yet declared in any method.
func NewVariable(name string, typ *TypeRef) *Variable {
	return &Variable{name: name, typ: typ}
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.name
}

// Type returns the declared type of the variable.
func (v *Variable) Type() *TypeRef {
	return v.typ
}

func (v *Variable) String() string {
	if v.name == "" {
		return fmt.Sprintf("<%s>", v.typ.FullName())
	}
	return fmt.Sprintf("%s:%s", v.name, v.typ.FullName())
}

// Variables is the variable table of a method body.
type Variables struct {
	items []*Variable
}

// Add appends v to the table. It does not check for duplicates.
func (vs *Variables) Add(v *Variable) {
	vs.items = append(vs.items, v)
}

// Remove deletes the first entry that is identical to v and reports
// whether one was found.
func (vs *Variables) Remove(v *Variable) bool {
	idx := vs.IndexOf(v)
	if idx < 0 {
		return false
	}
	vs.items = append(vs.items[:idx], vs.items[idx+1:]...)
	return true
}

// Contains reports whether v is declared in the table.
func (vs *Variables) Contains(v *Variable) bool {
	return vs.IndexOf(v) >= 0
}

// IndexOf returns the slot index of v, or -1.
func (vs *Variables) IndexOf(v *Variable) int {
	for i, item := range vs.items {
		if item == v {
			return i
		}
	}
	return -1
}

// Len returns the number of entries in the table.
func (vs *Variables) Len() int {
	return len(vs.items)
}

// At returns the variable at the given slot index.
func (vs *Variables) At(index int) *Variable {
	return vs.items[index]
}

// All returns a copy of the table entries.
func (vs *Variables) All() []*Variable {
	return copyVariables(vs.items)
}
