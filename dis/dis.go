// Package dis supports analysis of method bodies by disassembling them into
// rows of offsets, opcode names and operand text.
package dis

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/internal/table"
	"github.com/deepnoodle-ai/ilweave/op"
)

// ErrNilInstruction is returned when a body contains a nil instruction.
var ErrNilInstruction = errors.New("nil instruction")

// Instruction represents a single disassembled instruction.
type Instruction struct {
	Offset     int
	Label      string
	Name       string
	Opcode     op.Code
	Operand    string
	Annotation string
	Constant   any
}

// Handler represents a disassembled exception handler with its boundaries
// shown as IL_xxxx labels.
type Handler struct {
	Kind         string
	CatchType    string
	TryStart     string
	TryEnd       string
	HandlerStart string
	HandlerEnd   string
}

// Disassemble returns a parsed representation of the body of m.
func Disassemble(m *bytecode.Method) ([]Instruction, error) {
	body := m.Body()
	offsets := body.Offsets()
	label := func(target *bytecode.Instruction) string {
		return bytecode.Label(offsets, target)
	}
	instructions := make([]Instruction, 0, body.InstructionCount())
	for offset, ins := range body.Instructions() {
		if ins == nil {
			return nil, fmt.Errorf("%w at IL_%04x", ErrNilInstruction, offset)
		}
		info := op.GetInfo(ins.OpCode)
		instr := Instruction{
			Offset: offset,
			Label:  fmt.Sprintf("IL_%04x", offset),
			Name:   ins.OpCode.String(),
			Opcode: ins.OpCode,
		}
		switch operand := ins.Operand.(type) {
		case nil:
		case *bytecode.Instruction:
			instr.Operand = label(operand)
			instr.Annotation = operand.OpCode.String()
		case []*bytecode.Instruction:
			for i, target := range operand {
				if i > 0 {
					instr.Operand += ", "
				}
				instr.Operand += label(target)
			}
			instr.Annotation = fmt.Sprintf("%d cases", len(operand))
		case int32:
			instr.Operand = fmt.Sprintf("%d", operand)
			instr.Constant = operand
		case string:
			instr.Operand = fmt.Sprintf("%q", operand)
			instr.Constant = operand
		case int:
			instr.Operand = fmt.Sprintf("%d", operand)
			if info.Operand == op.OperandArg && operand >= 0 && operand < m.ParameterCount() {
				p := m.ParameterAt(operand)
				instr.Annotation = fmt.Sprintf("%s %s", p.Type.FullName(), p.Name)
			}
		case *bytecode.Variable:
			instr.Operand = fmt.Sprintf("%d", body.Variables().IndexOf(operand))
			instr.Annotation = operand.String()
		case *bytecode.TypeRef:
			instr.Operand = operand.FullName()
		case *bytecode.Method:
			instr.Operand = operand.FullName()
			instr.Annotation = operand.Signature()
		default:
			instr.Operand = fmt.Sprintf("%v", operand)
		}
		instructions = append(instructions, instr)
	}
	return instructions, nil
}

// Handlers returns the exception handlers of m with labelled boundaries.
// A handler without an end runs to the end of the body.
func Handlers(m *bytecode.Method) []Handler {
	body := m.Body()
	offsets := body.Offsets()
	handlers := make([]Handler, body.ExceptionHandlerCount())
	for i := range handlers {
		h := body.ExceptionHandlerAt(i)
		end := "end"
		if h.HandlerEnd != nil {
			end = bytecode.Label(offsets, h.HandlerEnd)
		}
		handlers[i] = Handler{
			Kind:         h.Kind.String(),
			CatchType:    h.CatchType.FullName(),
			TryStart:     bytecode.Label(offsets, h.TryStart),
			TryEnd:       bytecode.Label(offsets, h.TryEnd),
			HandlerStart: bytecode.Label(offsets, h.HandlerStart),
			HandlerEnd:   end,
		}
	}
	return handlers
}

var (
	bold    = color.New(color.Bold).SprintFunc()
	italic  = color.New(color.Italic).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	cyan    = color.New(color.FgHiCyan).SprintFunc()
)

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) error {
	var lines [][]string
	for _, instr := range instructions {
		values := []string{instr.Label, bold(instr.Name)}
		switch c := instr.Constant.(type) {
		case int32:
			values = append(values, yellow(instr.Operand))
		case string:
			if len(c) > 80 {
				c = c[:77] + "..."
			}
			values = append(values, green(fmt.Sprintf("%q", c)))
		default:
			if op.GetInfo(instr.Opcode).Operand == op.OperandMethod {
				values = append(values, magenta(instr.Operand))
			} else {
				values = append(values, instr.Operand)
			}
		}
		if instr.Annotation != "" {
			values = append(values, cyan(instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	return table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERAND", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// PrintHandlers writes a table of exception handlers. Nothing is written
// when there are no handlers.
func PrintHandlers(handlers []Handler, writer io.Writer) error {
	if len(handlers) == 0 {
		return nil
	}
	var lines [][]string
	for _, h := range handlers {
		lines = append(lines, []string{
			bold(h.Kind),
			italic(h.CatchType),
			h.TryStart,
			h.TryEnd,
			h.HandlerStart,
			h.HandlerEnd,
		})
	}
	return table.NewTable(writer).
		WithHeader([]string{"KIND", "CATCH", "TRY", "TRY END", "HANDLER", "HANDLER END"}).
		WithRows(lines).
		Render()
}
