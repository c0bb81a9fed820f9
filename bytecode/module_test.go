package bytecode

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewModule(t *testing.T) {
	a := NewModule("app")
	b := NewModule("app")
	require.Equal(t, "app", a.Name())
	require.NotEqual(t, uuid.Nil, a.MVID())
	require.NotEqual(t, a.MVID(), b.MVID())
}

func TestImportCoreType(t *testing.T) {
	m := NewModule("app")
	ref, err := m.Import(ExceptionType)
	require.NoError(t, err)
	require.True(t, ref.Same(ExceptionType))
	require.NotSame(t, ExceptionType, ref)

	again, err := m.Import(ExceptionType)
	require.NoError(t, err)
	require.Same(t, ref, again)
}

func TestImportDefinedType(t *testing.T) {
	m := NewModule("app")
	def := m.Define("App", "TimeoutException", ExceptionType)
	require.Same(t, def, m.Define("App", "TimeoutException", nil))

	ref, err := m.Import(&TypeRef{Namespace: "App", Name: "TimeoutException", Scope: "app"})
	require.NoError(t, err)
	require.Same(t, def, ref)

	_, err = m.Import(&TypeRef{Namespace: "App", Name: "Missing", Scope: "app"})
	require.ErrorIs(t, err, ErrUnresolvedType)
}

func TestImportReferencedScope(t *testing.T) {
	m := NewModule("app")
	foreign := &TypeRef{Namespace: "Lib", Name: "LibException", Scope: "lib", Base: ExceptionType}

	_, err := m.Import(foreign)
	require.ErrorIs(t, err, ErrUnresolvedType)
	require.Contains(t, err.Error(), "Lib.LibException")

	m.AddReference("lib")
	ref, err := m.Import(foreign)
	require.NoError(t, err)
	require.True(t, ref.IsAssignableTo(ExceptionType))
}

func TestImportNil(t *testing.T) {
	_, err := NewModule("app").Import(nil)
	require.ErrorIs(t, err, ErrUnresolvedType)
}

func TestModuleMethods(t *testing.T) {
	m := NewModule("app")
	b := NewMethod(m, "B", nil)
	NewMethod(m, "A", nil)
	require.Equal(t, []string{"A", "B"}, m.MethodNames())

	found, err := m.Method("B")
	require.NoError(t, err)
	require.Same(t, b, found)

	_, err = m.Method("C")
	require.ErrorIs(t, err, ErrUnresolvedMethod)
}

func TestTypeAssignability(t *testing.T) {
	require.True(t, InvalidOperationType.IsAssignableTo(ExceptionType))
	require.True(t, InvalidOperationType.IsAssignableTo(ObjectType))
	require.False(t, ExceptionType.IsAssignableTo(InvalidOperationType))
	require.False(t, StringType.IsAssignableTo(ExceptionType))

	var nilType *TypeRef
	require.Equal(t, "<nil>", nilType.FullName())
	require.Equal(t, "Name", (&TypeRef{Name: "Name"}).FullName())
}
