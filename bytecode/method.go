package bytecode

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/ilweave/op"
)

// Parameter is a formal parameter of a method.
type Parameter struct {
	Name string
	Type *TypeRef
}

// Method is a named method with a body that can be modified in place.
type Method struct {
	name       string
	module     *Module
	params     []*Parameter
	returnType *TypeRef
	body       *Body
}

// NewMethod creates a method with an empty body. If module is non-nil the
// method is registered with it. A nil returnType declares a method that
// returns no value.
func NewMethod(module *Module, name string, returnType *TypeRef, params ...*Parameter) *Method {
	m := &Method{
		name:       name,
		params:     copyParameters(params),
		returnType: returnType,
	}
	m.body = &Body{method: m, variables: &Variables{}}
	if module != nil {
		module.AddMethod(m)
	}
	return m
}

// Name returns the method name.
func (m *Method) Name() string {
	return m.name
}

// FullName returns the module-qualified method name.
func (m *Method) FullName() string {
	if m.module == nil {
		return m.name
	}
	return m.module.name + "::" + m.name
}

// Module returns the module that owns this method, or nil.
func (m *Method) Module() *Module {
	return m.module
}

// ParameterCount returns the number of parameters.
func (m *Method) ParameterCount() int {
	return len(m.params)
}

// ParameterAt returns the parameter at the given index.
func (m *Method) ParameterAt(index int) *Parameter {
	return m.params[index]
}

// ReturnType returns the declared return type, or nil.
func (m *Method) ReturnType() *TypeRef {
	return m.returnType
}

// ReturnsValue reports whether the method declares a return type.
func (m *Method) ReturnsValue() bool {
	return m.returnType != nil
}

// Body returns the method body.
func (m *Method) Body() *Body {
	return m.body
}

// Signature returns a readable method signature.
func (m *Method) Signature() string {
	params := make([]string, len(m.params))
	for i, p := range m.params {
		params[i] = fmt.Sprintf("%s %s", p.Type.FullName(), p.Name)
	}
	ret := "void"
	if m.returnType != nil {
		ret = m.returnType.FullName()
	}
	return fmt.Sprintf("%s %s(%s)", ret, m.FullName(), strings.Join(params, ", "))
}

// Body holds the instructions, variables and exception handlers of a method.
type Body struct {
	method            *Method
	instructions      []*Instruction
	variables         *Variables
	exceptionHandlers []*ExceptionHandler
}

// Method returns the method this body belongs to.
func (b *Body) Method() *Method {
	return b.method
}

// Processor returns a processor that creates and appends instructions for
// this body.
func (b *Body) Processor() *Processor {
	return &Processor{body: b}
}

// InstructionCount returns the number of committed instructions.
func (b *Body) InstructionCount() int {
	return len(b.instructions)
}

// InstructionAt returns the instruction at the given index.
func (b *Body) InstructionAt(index int) *Instruction {
	return b.instructions[index]
}

// Instructions returns a copy of the committed instruction list.
func (b *Body) Instructions() []*Instruction {
	return copyInstructions(b.instructions)
}

// IndexOf returns the position of ins in the body, or -1.
func (b *Body) IndexOf(ins *Instruction) int {
	if ins == nil {
		return -1
	}
	for i, item := range b.instructions {
		if item == ins {
			return i
		}
	}
	return -1
}

// Offsets maps every committed instruction to its position.
func (b *Body) Offsets() map[*Instruction]int {
	offsets := make(map[*Instruction]int, len(b.instructions))
	for i, ins := range b.instructions {
		if _, seen := offsets[ins]; !seen {
			offsets[ins] = i
		}
	}
	return offsets
}

// Variables returns the variable table.
func (b *Body) Variables() *Variables {
	return b.variables
}

// HasVariables reports whether any variable is declared.
func (b *Body) HasVariables() bool {
	return b.variables.Len() > 0
}

// AddExceptionHandler appends a handler to the handler table.
func (b *Body) AddExceptionHandler(h *ExceptionHandler) {
	b.exceptionHandlers = append(b.exceptionHandlers, h)
}

// ExceptionHandlerCount returns the number of exception handlers.
func (b *Body) ExceptionHandlerCount() int {
	return len(b.exceptionHandlers)
}

// ExceptionHandlerAt returns the exception handler at the given index.
func (b *Body) ExceptionHandlerAt(index int) *ExceptionHandler {
	return b.exceptionHandlers[index]
}

// Format renders ins with branch targets shown as IL_xxxx labels of their
// position in this body.
func (b *Body) Format(ins *Instruction) string {
	offsets := b.Offsets()
	return ins.format(func(target *Instruction) string {
		return Label(offsets, target)
	})
}

// Label returns the IL_xxxx label of target given a position map, or
// "IL_????" when the target is not committed.
func Label(offsets map[*Instruction]int, target *Instruction) string {
	if idx, ok := offsets[target]; ok {
		return fmt.Sprintf("IL_%04x", idx)
	}
	return "IL_????"
}

// Processor creates instructions and appends them to a body.
type Processor struct {
	body *Body
}

// Body returns the body this processor writes to.
func (p *Processor) Body() *Body {
	return p.body
}

// Create returns a new instruction. The instruction is not appended.
func (p *Processor) Create(code op.Code, operand any) *Instruction {
	return New(code, operand)
}

// Append adds instructions to the end of the body, transferring ownership
// of them to the method.
func (p *Processor) Append(instructions ...*Instruction) {
	p.body.instructions = append(p.body.instructions, instructions...)
}
