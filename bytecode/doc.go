// Package bytecode provides the object model of a method body that can be
// woven into a module: instructions, local variables, type references and
// exception handler tables.
//
// # Identity
//
// Instructions are compared by identity, never by value. Two instructions
// built from the same opcode and operand are distinct nodes:
//
//	a := bytecode.New(op.Nop, nil)
//	b := bytecode.New(op.Nop, nil)
//	// a != b
//
// Branch instructions hold a pointer to their target instruction. The
// target may be created long before it is appended to a body, which is how
// forward jumps are expressed without a separate label type.
//
// # Key Types
//
//   - [Instruction]: one opcode plus an optional operand
//   - [Method]: a named method with parameters and a [Body]
//   - [Body]: the committed instruction list, the [Variables] table and the
//     [ExceptionHandler] table
//   - [Processor]: creates and appends instructions for a body
//   - [Module]: owns methods and resolves type references through [Module.Import]
//
// # Boundaries
//
// Exception handler boundaries follow the host format: TryStart and
// HandlerStart are inclusive, TryEnd and HandlerEnd are exclusive. A nil
// HandlerEnd extends the handler to the end of the body.
//
// # Checking and persistence
//
// [Verify] reports every structural problem it finds in a body. [Marshal]
// and [Unmarshal] convert a method to and from a CBOR image in which
// instruction references are stored as body indexes.
package bytecode
