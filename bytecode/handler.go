package bytecode

// HandlerKind identifies the kind of an exception handler.
type HandlerKind uint8

const (
	// HandlerCatch runs its handler when an exception assignable to the
	// catch type is thrown inside the protected range.
	HandlerCatch HandlerKind = iota + 1
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerCatch:
		return "catch"
	default:
		return "unknown"
	}
}

// ExceptionHandler describes a protected range and the code that handles
// exceptions thrown inside it.
type ExceptionHandler struct {
	Kind         HandlerKind
	CatchType    *TypeRef
	TryStart     *Instruction // first protected instruction
	TryEnd       *Instruction // first instruction after the protected range
	HandlerStart *Instruction // first handler instruction
	HandlerEnd   *Instruction // first instruction after the handler (nil: end of body)
}

// NewCatchHandler creates a catch handler for the given type.
func NewCatchHandler(catchType *TypeRef) *ExceptionHandler {
	return &ExceptionHandler{Kind: HandlerCatch, CatchType: catchType}
}
