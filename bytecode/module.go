package bytecode

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gofrs/uuid"
)

var (
	// ErrUnresolvedType is returned when a type reference cannot be
	// resolved in the context of a module.
	ErrUnresolvedType = errors.New("unresolved type reference")

	// ErrUnresolvedMethod is returned when a method reference cannot be
	// found in a module.
	ErrUnresolvedMethod = errors.New("unresolved method reference")
)

// Module owns methods and the types it defines, and resolves type
// references from other scopes that it has been told about.
type Module struct {
	name       string
	mvid       uuid.UUID
	types      map[string]*TypeRef
	references map[string]bool
	imported   map[string]*TypeRef
	methods    map[string]*Method
}

// NewModule creates an empty module with a fresh module version id.
func NewModule(name string) *Module {
	return &Module{
		name:       name,
		mvid:       uuid.Must(uuid.NewV4()),
		types:      map[string]*TypeRef{},
		references: map[string]bool{},
		imported:   map[string]*TypeRef{},
		methods:    map[string]*Method{},
	}
}

// Name returns the module name, which is also the scope of its own types.
func (m *Module) Name() string {
	return m.name
}

// MVID returns the module version id.
func (m *Module) MVID() uuid.UUID {
	return m.mvid
}

// Define declares a type in this module and returns its reference.
// Defining the same full name twice returns the existing type.
func (m *Module) Define(namespace, name string, base *TypeRef) *TypeRef {
	t := &TypeRef{Namespace: namespace, Name: name, Scope: m.name, Base: base}
	if existing, ok := m.types[t.FullName()]; ok {
		return existing
	}
	m.types[t.FullName()] = t
	return t
}

// AddReference allows types from the given scope to be imported.
func (m *Module) AddReference(scope string) {
	m.references[scope] = true
}

// Import resolves t into this module's context. Types defined by this
// module resolve to their definition; types from the core scope or a
// referenced scope resolve to a module-local reference that is stable
// across calls. Anything else fails with ErrUnresolvedType.
func (m *Module) Import(t *TypeRef) (*TypeRef, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnresolvedType)
	}
	if t.Scope == m.name {
		if def, ok := m.types[t.FullName()]; ok {
			return def, nil
		}
		return nil, fmt.Errorf("%w: %s is not defined in %s", ErrUnresolvedType, t.FullName(), m.name)
	}
	if t.Scope != CoreScope && !m.references[t.Scope] {
		return nil, fmt.Errorf("%w: %s (scope %q is not referenced by %s)",
			ErrUnresolvedType, t.FullName(), t.Scope, m.name)
	}
	key := t.Scope + ":" + t.FullName()
	if ref, ok := m.imported[key]; ok {
		return ref, nil
	}
	ref := &TypeRef{Namespace: t.Namespace, Name: t.Name, Scope: t.Scope, Base: t.Base}
	m.imported[key] = ref
	return ref, nil
}

// AddMethod registers a method with this module, replacing any method with
// the same name.
func (m *Module) AddMethod(method *Method) {
	m.methods[method.name] = method
	method.module = m
}

// Method looks up a method by name.
func (m *Module) Method(name string) (*Method, error) {
	method, ok := m.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnresolvedMethod, m.name, name)
	}
	return method, nil
}

// MethodNames returns the sorted names of all methods in the module.
func (m *Module) MethodNames() []string {
	names := make([]string, 0, len(m.methods))
	for name := range m.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
