package bytecode

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/ilweave/op"
)

func TestVerifyValidBody(t *testing.T) {
	m := buildGuardedMethod(t, NewModule("app"))
	require.NoError(t, Verify(m))
}

func TestVerifyEmptyBody(t *testing.T) {
	require.NoError(t, Verify(NewMethod(nil, "Empty", nil)))
}

func TestVerifyCollectsAllProblems(t *testing.T) {
	m := NewMethod(nil, "Broken", nil)
	p := m.Body().Processor()
	shared := p.Create(op.Nop, nil)
	p.Append(
		p.Create(op.Br, New(op.Nop, nil)),                     // target outside the body
		p.Create(op.LdcI4, "not an int"),                      // wrong operand type
		p.Create(op.LdLoc, NewVariable("x", Int32Type)),       // undeclared variable
		p.Create(op.LdArg, 3),                                 // no such parameter
		p.Create(op.Switch, []*Instruction{New(op.Nop, nil)}), // case outside the body
		p.Create(op.Code(99), nil),                            // unknown opcode
		p.Create(op.Pop, int32(1)),                            // operand on a no-operand op
		shared,
		shared, // appended twice
	)

	err := Verify(m)
	require.ErrorIs(t, err, ErrInvalidBody)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 8)
}

func TestVerifyHandlerOrdering(t *testing.T) {
	m := NewMethod(nil, "M", nil)
	p := m.Body().Processor()
	a := p.Create(op.Nop, nil)
	b := p.Create(op.Nop, nil)
	c := p.Create(op.Nop, nil)
	p.Append(a, b, c)

	m.Body().AddExceptionHandler(&ExceptionHandler{
		Kind:         HandlerCatch,
		CatchType:    ExceptionType,
		TryStart:     b,
		TryEnd:       a,
		HandlerStart: c,
	})
	err := Verify(m)
	require.ErrorIs(t, err, ErrInvalidBody)
	require.Contains(t, err.Error(), "try end precedes the previous boundary")
}

func TestVerifyHandlerMissingBoundaries(t *testing.T) {
	m := NewMethod(nil, "M", nil)
	m.Body().Processor().Append(New(op.Nop, nil))
	m.Body().AddExceptionHandler(&ExceptionHandler{Kind: HandlerKind(9)})

	merr, ok := Verify(m).(*multierror.Error)
	require.True(t, ok)
	// kind, catch type, try start, try end, handler start
	require.Len(t, merr.Errors, 5)
}

func TestVerifyHandlerEndOfBody(t *testing.T) {
	m := NewMethod(nil, "M", nil)
	p := m.Body().Processor()
	a := p.Create(op.Nop, nil)
	b := p.Create(op.Nop, nil)
	p.Append(a, b)
	m.Body().AddExceptionHandler(&ExceptionHandler{
		Kind:         HandlerCatch,
		CatchType:    ExceptionType,
		TryStart:     a,
		TryEnd:       b,
		HandlerStart: b,
	})
	require.NoError(t, Verify(m))
}
