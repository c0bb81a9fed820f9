// Package builder assembles a method body from instructions and structured
// control-flow regions and commits it into an existing method.
//
// A MethodBuilder is bound to one target method. Instructions are appended
// through a fluent interface; the control-flow combinators (Goto,
// IfElseTrue, IfFalse, IfElse and Switch) splice sub-sequences produced by
// callbacks into the main sequence with correctly ordered branch
// instructions. Build commits the sequence and at most one catch handler.
//
// Branch targets are instructions, not labels: a target is created before
// the branch that refers to it and appended to the sequence later.
//
// A MethodBuilder is not safe for concurrent use.
package builder

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

var (
	// ErrAlreadyBuilt is returned by Build when the builder has already
	// committed its sequence.
	ErrAlreadyBuilt = errors.New("method builder already built")

	// ErrNestedBuild is returned by Build on a builder created with Sub.
	ErrNestedBuild = errors.New("nested builder cannot be built")
)

// ListFunc produces a self-contained list of instructions for a branch or
// case body. The list must not be appended to any builder by the callback.
type ListFunc func() []*bytecode.Instruction

// MethodBuilder accumulates an instruction sequence for one target method.
type MethodBuilder struct {
	method       *bytecode.Method
	processor    *bytecode.Processor
	instructions []*bytecode.Instruction
	region       Region
	exceptionVar *bytecode.Variable
	labels       map[string]*bytecode.Instruction
	returnVar    *bytecode.Variable
	returnPoint  *bytecode.Instruction
	logger       zerolog.Logger
	parent       *MethodBuilder
	built        bool
}

// Option configures a MethodBuilder.
type Option func(*MethodBuilder)

// WithLogger sets the logger used to report build activity.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *MethodBuilder) {
		b.logger = logger
	}
}

// WithReturnVariable makes the shared return point load v before
// returning, for methods that stage their result in a local.
// The variable is declared in the method's variable table.
func WithReturnVariable(v *bytecode.Variable) Option {
	return func(b *MethodBuilder) {
		b.returnVar = v
	}
}

// New creates a builder bound to method. The builder starts with an empty
// sequence; Build appends it after any instructions the method already has.
func New(method *bytecode.Method, options ...Option) *MethodBuilder {
	b := &MethodBuilder{
		method:    method,
		processor: method.Body().Processor(),
		labels:    map[string]*bytecode.Instruction{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(b)
	}
	if b.returnVar != nil {
		b.AddVariable(b.returnVar)
		b.returnPoint = b.processor.Create(op.LdLoc, b.returnVar)
	} else {
		b.returnPoint = b.processor.Create(op.Ret, nil)
	}
	return b
}

// Sub returns a builder for a closure-local sequence. It shares the target
// method, labels and return point with b but has its own instruction list,
// which is retrieved with Instructions. A nested builder cannot be built.
func (b *MethodBuilder) Sub() *MethodBuilder {
	return &MethodBuilder{
		method:      b.method,
		processor:   b.processor,
		labels:      b.labels,
		returnVar:   b.returnVar,
		returnPoint: b.returnPoint,
		logger:      b.logger,
		parent:      b,
	}
}

// Method returns the target method.
func (b *MethodBuilder) Method() *bytecode.Method {
	return b.method
}

// Create returns a new instruction without appending it.
func (b *MethodBuilder) Create(code op.Code, operand any) *bytecode.Instruction {
	return b.processor.Create(code, operand)
}

// Append adds one instruction to the end of the sequence.
func (b *MethodBuilder) Append(ins *bytecode.Instruction) *MethodBuilder {
	b.instructions = append(b.instructions, ins)
	return b
}

// AppendRange adds an ordered group of instructions to the end of the
// sequence.
func (b *MethodBuilder) AppendRange(instructions ...*bytecode.Instruction) *MethodBuilder {
	b.instructions = append(b.instructions, instructions...)
	return b
}

// Emit creates an instruction and appends it.
func (b *MethodBuilder) Emit(code op.Code, operand any) *MethodBuilder {
	return b.Append(b.Create(code, operand))
}

// Instructions returns a copy of the accumulated sequence.
func (b *MethodBuilder) Instructions() []*bytecode.Instruction {
	out := make([]*bytecode.Instruction, len(b.instructions))
	copy(out, b.instructions)
	return out
}

// Len returns the number of accumulated instructions.
func (b *MethodBuilder) Len() int {
	return len(b.instructions)
}

// Last returns the most recently appended instruction, or nil.
func (b *MethodBuilder) Last() *bytecode.Instruction {
	if len(b.instructions) == 0 {
		return nil
	}
	return b.instructions[len(b.instructions)-1]
}

// Build commits the sequence into the target method and, if an exception
// variable was set, registers one catch handler spanning the recorded
// region. Errors from resolving the catch type are returned unchanged.
// Build may be called only once.
func (b *MethodBuilder) Build() error {
	if b.parent != nil {
		return ErrNestedBuild
	}
	if b.built {
		return ErrAlreadyBuilt
	}
	var handler *bytecode.ExceptionHandler
	if b.exceptionVar != nil {
		var err error
		handler, err = b.catchHandler(b.exceptionVar.Type())
		if err != nil {
			return err
		}
	}
	b.built = true
	body := b.method.Body()
	b.processor.Append(b.instructions...)
	if handler != nil {
		body.AddExceptionHandler(handler)
	}
	b.logger.Debug().
		Str("method", b.method.FullName()).
		Int("instructions", len(b.instructions)).
		Int("variables", body.Variables().Len()).
		Bool("handler", handler != nil).
		Msg("committed method body")
	b.instructions = nil
	return nil
}

// catchHandler resolves catchType into the method's module and builds a
// catch handler from the recorded region.
func (b *MethodBuilder) catchHandler(catchType *bytecode.TypeRef) (*bytecode.ExceptionHandler, error) {
	if module := b.method.Module(); module != nil {
		imported, err := module.Import(catchType)
		if err != nil {
			return nil, err
		}
		catchType = imported
	}
	handler := bytecode.NewCatchHandler(catchType)
	handler.TryStart = b.region.TryStart
	handler.TryEnd = b.region.TryEnd
	handler.HandlerStart = b.region.HandleStart
	handler.HandlerEnd = b.region.HandleEnd
	return handler, nil
}
