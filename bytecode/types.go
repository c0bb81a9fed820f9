package bytecode

// CoreScope is the scope of the built-in types every module can resolve.
const CoreScope = "core"

// TypeRef refers to a type by namespace and name within a scope. The scope
// names the module that defines the type.
type TypeRef struct {
	Namespace string
	Name      string
	Scope     string
	Base      *TypeRef
}

// Built-in types.
var (
	ObjectType            = &TypeRef{Namespace: "System", Name: "Object", Scope: CoreScope}
	Int32Type             = &TypeRef{Namespace: "System", Name: "Int32", Scope: CoreScope, Base: ObjectType}
	BooleanType           = &TypeRef{Namespace: "System", Name: "Boolean", Scope: CoreScope, Base: ObjectType}
	StringType            = &TypeRef{Namespace: "System", Name: "String", Scope: CoreScope, Base: ObjectType}
	ExceptionType         = &TypeRef{Namespace: "System", Name: "Exception", Scope: CoreScope, Base: ObjectType}
	InvalidOperationType  = &TypeRef{Namespace: "System", Name: "InvalidOperationException", Scope: CoreScope, Base: ExceptionType}
	ArgumentExceptionType = &TypeRef{Namespace: "System", Name: "ArgumentException", Scope: CoreScope, Base: ExceptionType}
)

// FullName returns the namespace-qualified type name.
func (t *TypeRef) FullName() string {
	if t == nil {
		return "<nil>"
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Same reports whether t and other refer to the same type.
func (t *TypeRef) Same(other *TypeRef) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Scope == other.Scope && t.Namespace == other.Namespace && t.Name == other.Name
}

// IsAssignableTo reports whether a value of type t may be stored in a
// location of type other, following the Base chain.
func (t *TypeRef) IsAssignableTo(other *TypeRef) bool {
	for cur := t; cur != nil; cur = cur.Base {
		if cur.Same(other) {
			return true
		}
	}
	return false
}

func (t *TypeRef) String() string {
	return t.FullName()
}
