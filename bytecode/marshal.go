package bytecode

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid"

	"github.com/deepnoodle-ai/ilweave/op"
)

// ErrBadImage is returned when a method image cannot be decoded into a body.
var ErrBadImage = errors.New("bad method image")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type typeImage struct {
	Namespace string     `cbor:"ns,omitempty"`
	Name      string     `cbor:"name"`
	Scope     string     `cbor:"scope"`
	Base      *typeImage `cbor:"base,omitempty"`
}

type paramImage struct {
	Name string     `cbor:"name"`
	Type *typeImage `cbor:"type"`
}

type variableImage struct {
	Name string     `cbor:"name,omitempty"`
	Type *typeImage `cbor:"type"`
}

type instructionImage struct {
	Op      uint16     `cbor:"op"`
	Int     *int32     `cbor:"i,omitempty"`
	Str     *string    `cbor:"s,omitempty"`
	Arg     *int       `cbor:"a,omitempty"`
	Target  *int       `cbor:"t,omitempty"`
	Targets []int      `cbor:"tt,omitempty"`
	Local   *int       `cbor:"l,omitempty"`
	Type    *typeImage `cbor:"ty,omitempty"`
	Method  string     `cbor:"m,omitempty"`
}

type handlerImage struct {
	Kind         uint8      `cbor:"kind"`
	CatchType    *typeImage `cbor:"catch,omitempty"`
	TryStart     int        `cbor:"ts"`
	TryEnd       int        `cbor:"te"`
	HandlerStart int        `cbor:"hs"`
	HandlerEnd   int        `cbor:"he"`
}

type methodImage struct {
	Module       string             `cbor:"module"`
	MVID         string             `cbor:"mvid"`
	Name         string             `cbor:"name"`
	Return       *typeImage         `cbor:"ret,omitempty"`
	Params       []paramImage       `cbor:"params,omitempty"`
	Variables    []variableImage    `cbor:"vars,omitempty"`
	Instructions []instructionImage `cbor:"code"`
	Handlers     []handlerImage     `cbor:"handlers,omitempty"`
}

// ImageHeader identifies the method stored in an image and the module
// instance that wrote it.
type ImageHeader struct {
	Module string
	MVID   uuid.UUID
	Method string
}

// ReadImageHeader decodes the header of a method image without resolving
// its body. An image written by a method without a module has a nil MVID.
func ReadImageHeader(data []byte) (ImageHeader, error) {
	var img methodImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return ImageHeader{}, fmt.Errorf("bytecode: unmarshal method: %w", err)
	}
	return img.header()
}

func (img *methodImage) header() (ImageHeader, error) {
	h := ImageHeader{Module: img.Module, Method: img.Name}
	if img.MVID != "" {
		id, err := uuid.FromString(img.MVID)
		if err != nil {
			return ImageHeader{}, fmt.Errorf("%w: malformed mvid %q", ErrBadImage, img.MVID)
		}
		h.MVID = id
	}
	return h, nil
}

// Marshal encodes a committed method as a canonical CBOR image. References
// between instructions, variables and handler boundaries are stored as
// indexes into the body; the body must therefore pass Verify.
func Marshal(m *Method) ([]byte, error) {
	if err := Verify(m); err != nil {
		return nil, err
	}
	body := m.Body()
	offsets := body.Offsets()
	img := methodImage{
		Name:   m.name,
		Return: encodeType(m.returnType),
	}
	if m.module != nil {
		img.Module = m.module.name
		img.MVID = m.module.mvid.String()
	}
	for _, p := range m.params {
		img.Params = append(img.Params, paramImage{Name: p.Name, Type: encodeType(p.Type)})
	}
	for _, v := range body.variables.items {
		img.Variables = append(img.Variables, variableImage{Name: v.name, Type: encodeType(v.typ)})
	}
	for _, ins := range body.instructions {
		img.Instructions = append(img.Instructions, encodeInstruction(ins, offsets, body.variables))
	}
	for _, h := range body.exceptionHandlers {
		he := len(body.instructions)
		if h.HandlerEnd != nil {
			he = offsets[h.HandlerEnd]
		}
		img.Handlers = append(img.Handlers, handlerImage{
			Kind:         uint8(h.Kind),
			CatchType:    encodeType(h.CatchType),
			TryStart:     offsets[h.TryStart],
			TryEnd:       offsets[h.TryEnd],
			HandlerStart: offsets[h.HandlerStart],
			HandlerEnd:   he,
		})
	}
	return cborEncMode.Marshal(img)
}

// Unmarshal decodes a method image into a new method registered with
// module, replacing any method of the same name. Catch types and newobj
// types are resolved through module.Import, and call targets through
// module.Method; resolution errors are returned unchanged.
func Unmarshal(data []byte, module *Module) (*Method, error) {
	var img methodImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal method: %w", err)
	}
	if _, err := img.header(); err != nil {
		return nil, err
	}
	if img.Module != module.name {
		return nil, fmt.Errorf("%w: image of module %q loaded into %q", ErrBadImage, img.Module, module.name)
	}
	params := make([]*Parameter, len(img.Params))
	for i, p := range img.Params {
		params[i] = &Parameter{Name: p.Name, Type: decodeType(p.Type)}
	}
	m := NewMethod(nil, img.Name, decodeType(img.Return), params...)
	body := m.Body()
	for _, v := range img.Variables {
		body.variables.Add(NewVariable(v.Name, decodeType(v.Type)))
	}

	// Allocate every instruction first so that operands can refer forward.
	instructions := make([]*Instruction, len(img.Instructions))
	for i, ii := range img.Instructions {
		instructions[i] = &Instruction{OpCode: op.Code(ii.Op)}
	}
	at := func(idx int) (*Instruction, error) {
		if idx < 0 || idx >= len(instructions) {
			return nil, fmt.Errorf("%w: instruction index %d out of range", ErrBadImage, idx)
		}
		return instructions[idx], nil
	}
	for i, ii := range img.Instructions {
		operand, err := decodeOperand(ii, at, m, module)
		if err != nil {
			return nil, err
		}
		instructions[i].Operand = operand
	}
	body.Processor().Append(instructions...)

	for _, hi := range img.Handlers {
		h := &ExceptionHandler{Kind: HandlerKind(hi.Kind)}
		if hi.CatchType != nil {
			catchType, err := module.Import(decodeType(hi.CatchType))
			if err != nil {
				return nil, err
			}
			h.CatchType = catchType
		}
		var err error
		if h.TryStart, err = at(hi.TryStart); err != nil {
			return nil, err
		}
		if h.TryEnd, err = at(hi.TryEnd); err != nil {
			return nil, err
		}
		if h.HandlerStart, err = at(hi.HandlerStart); err != nil {
			return nil, err
		}
		if hi.HandlerEnd != len(instructions) {
			if h.HandlerEnd, err = at(hi.HandlerEnd); err != nil {
				return nil, err
			}
		}
		body.AddExceptionHandler(h)
	}
	module.AddMethod(m)
	return m, nil
}

func encodeInstruction(ins *Instruction, offsets map[*Instruction]int, vars *Variables) instructionImage {
	img := instructionImage{Op: uint16(ins.OpCode)}
	switch operand := ins.Operand.(type) {
	case int32:
		img.Int = &operand
	case string:
		img.Str = &operand
	case int:
		img.Arg = &operand
	case *Instruction:
		idx := offsets[operand]
		img.Target = &idx
	case []*Instruction:
		img.Targets = make([]int, len(operand))
		for i, t := range operand {
			img.Targets[i] = offsets[t]
		}
	case *Variable:
		idx := vars.IndexOf(operand)
		img.Local = &idx
	case *TypeRef:
		img.Type = encodeType(operand)
	case *Method:
		img.Method = operand.name
	}
	return img
}

func decodeOperand(ii instructionImage, at func(int) (*Instruction, error), self *Method, module *Module) (any, error) {
	vars := self.body.variables
	switch op.GetInfo(op.Code(ii.Op)).Operand {
	case op.OperandInt:
		if ii.Int != nil {
			return *ii.Int, nil
		}
	case op.OperandString:
		if ii.Str != nil {
			return *ii.Str, nil
		}
	case op.OperandArg:
		if ii.Arg != nil {
			return *ii.Arg, nil
		}
	case op.OperandBranch:
		if ii.Target != nil {
			return at(*ii.Target)
		}
	case op.OperandBranchTable:
		targets := make([]*Instruction, len(ii.Targets))
		for i, idx := range ii.Targets {
			t, err := at(idx)
			if err != nil {
				return nil, err
			}
			targets[i] = t
		}
		return targets, nil
	case op.OperandLocal:
		if ii.Local != nil {
			if *ii.Local < 0 || *ii.Local >= vars.Len() {
				return nil, fmt.Errorf("%w: variable index %d out of range", ErrBadImage, *ii.Local)
			}
			return vars.At(*ii.Local), nil
		}
	case op.OperandType:
		if ii.Type != nil {
			return module.Import(decodeType(ii.Type))
		}
	case op.OperandMethod:
		if ii.Method == self.name {
			return self, nil
		}
		if ii.Method != "" {
			return module.Method(ii.Method)
		}
	case op.OperandNone:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: missing operand for %s", ErrBadImage, op.Code(ii.Op))
}

func encodeType(t *TypeRef) *typeImage {
	if t == nil {
		return nil
	}
	return &typeImage{Namespace: t.Namespace, Name: t.Name, Scope: t.Scope, Base: encodeType(t.Base)}
}

func decodeType(img *typeImage) *TypeRef {
	if img == nil {
		return nil
	}
	return &TypeRef{Namespace: img.Namespace, Name: img.Name, Scope: img.Scope, Base: decodeType(img.Base)}
}
