package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

// newGuarded returns a method that throws thrown when its argument is
// false and returns 1 otherwise. The throw is protected by a handler for
// caught that stores -1.
func newGuarded(module *bytecode.Module, thrown, caught *bytecode.TypeRef) *bytecode.Method {
	m := bytecode.NewMethod(module, "Guarded", bytecode.Int32Type,
		&bytecode.Parameter{Name: "flag", Type: bytecode.BooleanType})
	body := m.Body()
	ex := bytecode.NewVariable("ex", caught)
	result := bytecode.NewVariable("result", bytecode.Int32Type)
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
		p.Create(op.NewObj, thrown),
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
	body.AddExceptionHandler(&bytecode.ExceptionHandler{
		Kind:         bytecode.HandlerCatch,
		CatchType:    caught,
		TryStart:     tryStart,
		TryEnd:       handlerStart,
		HandlerStart: handlerStart,
		HandlerEnd:   exit,
	})
	return m
}

func TestCatchHandler(t *testing.T) {
	m := newGuarded(nil, bytecode.InvalidOperationType, bytecode.ExceptionType)
	machine := New()

	result, err := machine.Call(context.Background(), m, true)
	require.NoError(t, err)
	require.Equal(t, int32(1), result)

	result, err = machine.Call(context.Background(), m, false)
	require.NoError(t, err)
	require.Equal(t, int32(-1), result)
}

func TestUncaughtException(t *testing.T) {
	m := newGuarded(nil, bytecode.InvalidOperationType, bytecode.ArgumentExceptionType)

	_, err := New().Call(context.Background(), m, false)
	require.Error(t, err)

	var exc *Exception
	require.True(t, errors.As(err, &exc))
	require.Same(t, bytecode.InvalidOperationType, exc.Type)
	require.Equal(t, "boom", exc.Message)
	require.Equal(t, "System.InvalidOperationException: boom", err.Error())
	require.ErrorIs(t, err, &Exception{Type: bytecode.ExceptionType})
	require.NotErrorIs(t, err, &Exception{Type: bytecode.ArgumentExceptionType})
}

func TestExceptionFromCallee(t *testing.T) {
	module := bytecode.NewModule("app")
	thrower := bytecode.NewMethod(module, "Fail", nil)
	p := thrower.Body().Processor()
	p.Append(
		p.Create(op.LdNull, nil),
		p.Create(op.NewObj, bytecode.ArgumentExceptionType),
		p.Create(op.Throw, nil),
	)

	caller := bytecode.NewMethod(module, "Caller", bytecode.Int32Type)
	body := caller.Body()
	result := bytecode.NewVariable("result", bytecode.Int32Type)
	body.Variables().Add(result)
	p = body.Processor()
	tryStart := p.Create(op.Call, thrower)
	exit := p.Create(op.LdLoc, result)
	handlerStart := p.Create(op.Pop, nil)
	p.Append(
		tryStart,
		p.Create(op.LdcI4, int32(0)),
		p.Create(op.StLoc, result),
		p.Create(op.Leave, exit),
		handlerStart,
		p.Create(op.LdcI4, int32(7)),
		p.Create(op.StLoc, result),
		p.Create(op.Leave, exit),
		exit,
		p.Create(op.Ret, nil),
	)
	handler := bytecode.NewCatchHandler(bytecode.ArgumentExceptionType)
	handler.TryStart = tryStart
	handler.TryEnd = handlerStart
	handler.HandlerStart = handlerStart
	handler.HandlerEnd = exit
	body.AddExceptionHandler(handler)

	value, err := New().Call(context.Background(), caller)
	require.NoError(t, err)
	require.Equal(t, int32(7), value)

	_, err = New().Call(context.Background(), thrower)
	require.EqualError(t, err, "System.ArgumentException")
}

func TestNewObjRequiresExceptionType(t *testing.T) {
	m := bytecode.NewMethod(nil, "Bad", nil)
	p := m.Body().Processor()
	p.Append(
		p.Create(op.LdStr, "x"),
		p.Create(op.NewObj, bytecode.StringType),
		p.Create(op.Throw, nil),
	)
	_, err := New().Call(context.Background(), m)
	require.ErrorIs(t, err, ErrInvalidProgram)
}

func TestThrowNonException(t *testing.T) {
	m := bytecode.NewMethod(nil, "Bad", nil)
	p := m.Body().Processor()
	p.Append(p.Create(op.LdcI4, int32(1)), p.Create(op.Throw, nil))
	_, err := New().Call(context.Background(), m)
	require.ErrorIs(t, err, ErrInvalidProgram)
}

func TestExceptionStackTrace(t *testing.T) {
	module := bytecode.NewModule("app")
	inner := bytecode.NewMethod(module, "Inner", nil)
	p := inner.Body().Processor()
	p.Append(
		p.Create(op.LdStr, "deep"),
		p.Create(op.NewObj, bytecode.ExceptionType),
		p.Create(op.Throw, nil),
	)
	outer := bytecode.NewMethod(module, "Outer", nil)
	p = outer.Body().Processor()
	p.Append(p.Create(op.Nop, nil), p.Create(op.Call, inner), p.Create(op.Ret, nil))

	_, err := New().Call(context.Background(), outer)
	var exc *Exception
	require.True(t, errors.As(err, &exc))
	require.Equal(t, []StackFrame{
		{Method: "app::Inner", Offset: 2},
		{Method: "app::Outer", Offset: 1},
	}, exc.Stack)
	require.Equal(t, `unhandled exception: System.Exception: deep

Stack trace:
  at app::Inner+IL_0002
  at app::Outer+IL_0001
`, exc.FriendlyErrorMessage())
}
