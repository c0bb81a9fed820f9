// Package op defines the opcodes of the stack machine that woven method
// bodies are written in.
package op

import "fmt"

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop Code = 1
	Ret Code = 2

	// Branching
	Br      Code = 10
	BrTrue  Code = 11
	BrFalse Code = 12
	Switch  Code = 13
	Leave   Code = 14

	// Load
	LdArg  Code = 20
	LdLoc  Code = 21
	LdcI4  Code = 22
	LdStr  Code = 23
	LdNull Code = 24

	// Store
	StLoc Code = 30

	// Stack
	Pop Code = 40
	Dup Code = 41

	// Arithmetic and comparison
	Add Code = 50
	Sub Code = 51
	Mul Code = 52
	Ceq Code = 53
	Clt Code = 54
	Cgt Code = 55

	// Calls and objects
	Call   Code = 60
	NewObj Code = 61

	// Exception handling
	Throw Code = 70
)

// OperandKind describes what an instruction's operand refers to.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandBranch
	OperandBranchTable
	OperandInt
	OperandString
	OperandArg
	OperandLocal
	OperandType
	OperandMethod
)

// String returns a short name for the operand kind.
func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandBranch:
		return "branch"
	case OperandBranchTable:
		return "branch-table"
	case OperandInt:
		return "int"
	case OperandString:
		return "string"
	case OperandArg:
		return "arg"
	case OperandLocal:
		return "local"
	case OperandType:
		return "type"
	case OperandMethod:
		return "method"
	default:
		return fmt.Sprintf("operand(%d)", uint8(k))
	}
}

// Info contains information about an opcode.
type Info struct {
	Code    Code
	Name    string
	Operand OperandKind
}

var infos = make([]Info, 128)

func init() {
	type opInfo struct {
		op      Code
		name    string
		operand OperandKind
	}
	ops := []opInfo{
		{Add, "add", OperandNone},
		{Br, "br", OperandBranch},
		{BrFalse, "brfalse", OperandBranch},
		{BrTrue, "brtrue", OperandBranch},
		{Call, "call", OperandMethod},
		{Ceq, "ceq", OperandNone},
		{Cgt, "cgt", OperandNone},
		{Clt, "clt", OperandNone},
		{Dup, "dup", OperandNone},
		{LdArg, "ldarg", OperandArg},
		{LdLoc, "ldloc", OperandLocal},
		{LdNull, "ldnull", OperandNone},
		{LdStr, "ldstr", OperandString},
		{LdcI4, "ldc.i4", OperandInt},
		{Leave, "leave", OperandBranch},
		{Mul, "mul", OperandNone},
		{NewObj, "newobj", OperandType},
		{Nop, "nop", OperandNone},
		{Pop, "pop", OperandNone},
		{Ret, "ret", OperandNone},
		{StLoc, "stloc", OperandLocal},
		{Sub, "sub", OperandNone},
		{Switch, "switch", OperandBranchTable},
		{Throw, "throw", OperandNone},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:    o.name,
			Code:    o.op,
			Operand: o.operand,
		}
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes
// yield an Info with an empty Name.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}

// String returns the mnemonic of the opcode.
func (c Code) String() string {
	if name := GetInfo(c).Name; name != "" {
		return name
	}
	return fmt.Sprintf("op(%d)", uint16(c))
}

// IsBranch reports whether the opcode transfers control to one or more
// instruction operands.
func (c Code) IsBranch() bool {
	switch GetInfo(c).Operand {
	case OperandBranch, OperandBranchTable:
		return true
	}
	return false
}

// IsConditional reports whether the opcode may fall through to the next
// instruction after evaluating a branch condition.
func (c Code) IsConditional() bool {
	switch c {
	case BrTrue, BrFalse, Switch:
		return true
	}
	return false
}

// EndsFlow reports whether execution never continues at the next
// instruction after this opcode.
func (c Code) EndsFlow() bool {
	switch c {
	case Ret, Br, Leave, Throw:
		return true
	}
	return false
}
