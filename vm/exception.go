package vm

import (
	"bytes"
	"fmt"

	"github.com/deepnoodle-ai/ilweave/bytecode"
)

// StackFrame is one method activation an exception passed through.
type StackFrame struct {
	Method string
	Offset int
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s+IL_%04x", f.Method, f.Offset)
}

// Exception is a thrown exception value. An exception that escapes the
// outermost method is returned from Call as an error.
type Exception struct {
	Type    *bytecode.TypeRef
	Message string

	// Stack lists the frames the exception left without being caught,
	// innermost first.
	Stack []StackFrame
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Type.FullName()
	}
	return fmt.Sprintf("%s: %s", e.Type.FullName(), e.Message)
}

// Is reports whether target is an exception whose type is assignable to e's
// type, so errors.Is(err, &Exception{Type: bytecode.ExceptionType}) matches
// any exception.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	return e.Type.IsAssignableTo(t.Type)
}

// FriendlyErrorMessage returns the error followed by its stack trace.
func (e *Exception) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString("unhandled exception: ")
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	if len(e.Stack) > 0 {
		msg.WriteString("\n")
		msg.WriteString(FormatStackTrace(e.Stack))
	}
	return msg.String()
}

// FormatStackTrace renders frames one per line, innermost first.
func FormatStackTrace(frames []StackFrame) string {
	var msg bytes.Buffer
	msg.WriteString("Stack trace:\n")
	for _, f := range frames {
		msg.WriteString("  at ")
		msg.WriteString(f.String())
		msg.WriteString("\n")
	}
	return msg.String()
}
