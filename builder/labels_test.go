package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

func TestLabelIsCreatedOnce(t *testing.T) {
	b := New(newMethod(nil))
	first := b.Label("loop")
	require.Equal(t, op.Nop, first.OpCode)
	require.Same(t, first, b.Label("loop"))
	require.NotSame(t, first, b.Label("exit"))
	require.Zero(t, b.Len())
}

func TestLabelLoop(t *testing.T) {
	m := newMethod(bytecode.Int32Type, &bytecode.Parameter{Name: "n", Type: bytecode.Int32Type})
	acc := bytecode.NewVariable("acc", bytecode.Int32Type)
	i := bytecode.NewVariable("i", bytecode.Int32Type)
	b := New(m, WithReturnVariable(acc))
	b.AddVariable(i)

	// acc = 0; i = 0; while i < n { acc += 2; i++ }
	b.Emit(op.LdcI4, int32(0)).Emit(op.StLoc, acc)
	b.Emit(op.LdcI4, int32(0)).Emit(op.StLoc, i)
	b.PlaceLabel("loop")
	b.Emit(op.LdLoc, i).Emit(op.LdArg, 0).Emit(op.Clt, nil)
	b.Emit(op.BrFalse, b.ReturnPoint())
	b.Emit(op.LdLoc, acc).Emit(op.LdcI4, int32(2)).Emit(op.Add, nil).Emit(op.StLoc, acc)
	b.Emit(op.LdLoc, i).Emit(op.LdcI4, int32(1)).Emit(op.Add, nil).Emit(op.StLoc, i)
	b.Emit(op.Br, b.Label("loop"))
	b.EmitReturn()
	require.NoError(t, b.Build())

	require.Equal(t, int32(0), call(t, m, 0))
	require.Equal(t, int32(8), call(t, m, 4))
}

func TestEmitReturnWithoutVariable(t *testing.T) {
	m := newMethod(nil)
	b := New(m)
	require.Nil(t, b.ReturnVariable())
	b.Emit(op.Br, b.ReturnPoint()).Emit(op.Nop, nil).EmitReturn()
	require.NoError(t, b.Build())

	got := m.Body().Instructions()
	require.Len(t, got, 3)
	require.Same(t, b.ReturnPoint(), got[2])
	require.Equal(t, op.Ret, got[2].OpCode)
	require.Nil(t, call(t, m))
}
