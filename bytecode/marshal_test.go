package bytecode

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/ilweave/op"
)

func buildGuardedMethod(t *testing.T, module *Module) *Method {
	t.Helper()
	m := NewMethod(module, "Guarded", Int32Type, &Parameter{Name: "flag", Type: BooleanType})
	body := m.Body()
	ex := NewVariable("ex", ExceptionType)
	result := NewVariable("result", Int32Type)
	body.Variables().Add(ex)
	body.Variables().Add(result)

	p := body.Processor()
	exit := p.Create(op.LdLoc, result)
	tryStart := p.Create(op.LdArg, 0)
	onTrue := p.Create(op.LdcI4, int32(1))
	handlerStart := p.Create(op.StLoc, ex)
	p.Append(
		tryStart,
		p.Create(op.BrTrue, onTrue),
		p.Create(op.LdStr, "boom"),
		p.Create(op.NewObj, InvalidOperationType),
		p.Create(op.Throw, nil),
		onTrue,
		p.Create(op.StLoc, result),
		p.Create(op.Leave, exit),
		handlerStart,
		p.Create(op.LdcI4, int32(-1)),
		p.Create(op.StLoc, result),
		p.Create(op.Leave, exit),
		exit,
		p.Create(op.Ret, nil),
	)
	body.AddExceptionHandler(&ExceptionHandler{
		Kind:         HandlerCatch,
		CatchType:    ExceptionType,
		TryStart:     tryStart,
		TryEnd:       handlerStart,
		HandlerStart: handlerStart,
		HandlerEnd:   exit,
	})
	require.NoError(t, Verify(m))
	return m
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	module := NewModule("app")
	original := buildGuardedMethod(t, module)

	data, err := Marshal(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	loaded, err := Unmarshal(data, module)
	require.NoError(t, err)
	require.NoError(t, Verify(loaded))

	require.Equal(t, original.Name(), loaded.Name())
	require.True(t, loaded.ReturnType().Same(Int32Type))
	require.Equal(t, 1, loaded.ParameterCount())
	require.Equal(t, "flag", loaded.ParameterAt(0).Name)

	ob, lb := original.Body(), loaded.Body()
	require.Equal(t, ob.InstructionCount(), lb.InstructionCount())
	for i := 0; i < ob.InstructionCount(); i++ {
		require.Equal(t, ob.Format(ob.InstructionAt(i)), lb.Format(lb.InstructionAt(i)), "instruction %d", i)
	}
	require.Equal(t, 2, lb.Variables().Len())
	require.Equal(t, "ex", lb.Variables().At(0).Name())

	require.Equal(t, 1, lb.ExceptionHandlerCount())
	h := lb.ExceptionHandlerAt(0)
	require.Equal(t, HandlerCatch, h.Kind)
	require.True(t, h.CatchType.Same(ExceptionType))
	require.Equal(t, 0, lb.IndexOf(h.TryStart))
	require.Equal(t, 8, lb.IndexOf(h.TryEnd))
	require.Equal(t, 8, lb.IndexOf(h.HandlerStart))
	require.Equal(t, 12, lb.IndexOf(h.HandlerEnd))

	// The decoded method replaces the original in its module.
	registered, err := module.Method("Guarded")
	require.NoError(t, err)
	require.Same(t, loaded, registered)
}

func TestMarshalIsDeterministic(t *testing.T) {
	module := NewModule("app")
	m := buildGuardedMethod(t, module)
	a, err := Marshal(m)
	require.NoError(t, err)
	b, err := Marshal(m)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestMarshalRejectsInvalidBody(t *testing.T) {
	m := NewMethod(NewModule("app"), "Broken", nil)
	p := m.Body().Processor()
	p.Append(p.Create(op.Br, New(op.Nop, nil)))
	_, err := Marshal(m)
	require.ErrorIs(t, err, ErrInvalidBody)
}

func TestUnmarshalWrongModule(t *testing.T) {
	m := buildGuardedMethod(t, NewModule("app"))
	data, err := Marshal(m)
	require.NoError(t, err)
	_, err = Unmarshal(data, NewModule("other"))
	require.ErrorIs(t, err, ErrBadImage)
}

func TestUnmarshalUnresolvedCallee(t *testing.T) {
	module := NewModule("app")
	callee := NewMethod(module, "Callee", nil)
	callee.Body().Processor().Append(New(op.Ret, nil))
	caller := NewMethod(module, "Caller", nil)
	p := caller.Body().Processor()
	p.Append(p.Create(op.Call, callee), p.Create(op.Ret, nil))

	data, err := Marshal(caller)
	require.NoError(t, err)

	fresh := NewModule("app")
	_, err = Unmarshal(data, fresh)
	require.ErrorIs(t, err, ErrUnresolvedMethod)
}

func TestUnmarshalSelfCall(t *testing.T) {
	module := NewModule("app")
	m := NewMethod(module, "Loop", nil)
	p := m.Body().Processor()
	p.Append(p.Create(op.Call, m), p.Create(op.Ret, nil))
	data, err := Marshal(m)
	require.NoError(t, err)

	loaded, err := Unmarshal(data, NewModule("app"))
	require.NoError(t, err)
	require.Same(t, loaded, loaded.Body().InstructionAt(0).Operand)
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0x00, 0x13}, NewModule("app"))
	require.Error(t, err)
}

func TestReadImageHeader(t *testing.T) {
	module := NewModule("app")
	data, err := Marshal(buildGuardedMethod(t, module))
	require.NoError(t, err)

	header, err := ReadImageHeader(data)
	require.NoError(t, err)
	require.Equal(t, ImageHeader{Module: "app", MVID: module.MVID(), Method: "Guarded"}, header)

	m := NewMethod(nil, "Loose", nil)
	m.Body().Processor().Append(New(op.Ret, nil))
	data, err = Marshal(m)
	require.NoError(t, err)
	header, err = ReadImageHeader(data)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, header.MVID)
}

func TestUnmarshalMalformedMVID(t *testing.T) {
	module := NewModule("app")
	data, err := cborEncMode.Marshal(methodImage{
		Module:       "app",
		MVID:         "not-a-uuid",
		Name:         "M",
		Instructions: []instructionImage{{Op: uint16(op.Ret)}},
	})
	require.NoError(t, err)

	_, err = ReadImageHeader(data)
	require.ErrorIs(t, err, ErrBadImage)
	_, err = Unmarshal(data, module)
	require.ErrorIs(t, err, ErrBadImage)
	_, err = module.Method("M")
	require.ErrorIs(t, err, ErrUnresolvedMethod)
}
