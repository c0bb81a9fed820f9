package main

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/ilweave/builder"
	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/op"
)

const sampleModuleName = "samples"

type sampleFunc func(module *bytecode.Module, logger zerolog.Logger) error

// samples lists the methods woven into the built-in module, in build order.
var samples = []struct {
	name  string
	build sampleFunc
}{
	{"Choose", buildChoose},
	{"Both", buildBoth},
	{"Classify", buildClassify},
	{"Sum", buildSum},
	{"Guarded", buildGuarded},
	{"Twice", buildTwice},
}

// newSampleModule weaves every sample method into a fresh module.
func newSampleModule(logger zerolog.Logger) (*bytecode.Module, error) {
	module := bytecode.NewModule(sampleModuleName)
	for _, s := range samples {
		if err := s.build(module, logger); err != nil {
			return nil, err
		}
	}
	return module, nil
}

func int32Param(name string) *bytecode.Parameter {
	return &bytecode.Parameter{Name: name, Type: bytecode.Int32Type}
}

func boolParam(name string) *bytecode.Parameter {
	return &bytecode.Parameter{Name: name, Type: bytecode.BooleanType}
}

func constant(b *builder.MethodBuilder, v int32, store *bytecode.Variable) builder.ListFunc {
	return func() []*bytecode.Instruction {
		return b.Sub().Emit(op.LdcI4, v).Emit(op.StLoc, store).Instructions()
	}
}

func addTo(b *builder.MethodBuilder, acc *bytecode.Variable, v int32) builder.ListFunc {
	return func() []*bytecode.Instruction {
		return b.Sub().
			Emit(op.LdLoc, acc).
			Emit(op.LdcI4, v).
			Emit(op.Add, nil).
			Emit(op.StLoc, acc).
			Instructions()
	}
}

// Choose(flag) returns 1 when flag is true and 0 otherwise.
func buildChoose(module *bytecode.Module, logger zerolog.Logger) error {
	m := bytecode.NewMethod(module, "Choose", bytecode.Int32Type, boolParam("flag"))
	result := bytecode.NewVariable("result", bytecode.Int32Type)
	b := builder.New(m, builder.WithLogger(logger), builder.WithReturnVariable(result))
	b.Emit(op.LdArg, 0)
	b.IfElseTrue(constant(b, 1, result), constant(b, 0, result))
	b.EmitReturn()
	return b.Build()
}

// Both(flag) adds 1 for the true list and 10 for the false list. A true
// flag runs both lists and returns 11.
func buildBoth(module *bytecode.Module, logger zerolog.Logger) error {
	m := bytecode.NewMethod(module, "Both", bytecode.Int32Type, boolParam("flag"))
	acc := bytecode.NewVariable("acc", bytecode.Int32Type)
	b := builder.New(m, builder.WithLogger(logger), builder.WithReturnVariable(acc))
	b.Emit(op.LdcI4, int32(0)).Emit(op.StLoc, acc)
	b.Emit(op.LdArg, 0)
	b.IfFalse(addTo(b, acc, 1), addTo(b, acc, 10))
	b.EmitReturn()
	return b.Build()
}

// Classify(n) maps 0, 1 and 2 to 100, 200 and 300, and anything else to -1.
func buildClassify(module *bytecode.Module, logger zerolog.Logger) error {
	m := bytecode.NewMethod(module, "Classify", bytecode.Int32Type, int32Param("n"))
	result := bytecode.NewVariable("result", bytecode.Int32Type)
	b := builder.New(m, builder.WithLogger(logger), builder.WithReturnVariable(result))
	caseFn := func(v int32) builder.ListFunc {
		return func() []*bytecode.Instruction {
			return b.Sub().
				Emit(op.LdcI4, v).
				Emit(op.StLoc, result).
				Emit(op.Br, b.ReturnPoint()).
				Instructions()
		}
	}
	b.Emit(op.LdArg, 0)
	b.Switch(caseFn(-1), caseFn(100), caseFn(200), caseFn(300))
	b.EmitReturn()
	return b.Build()
}

// Sum(n) returns 0 + 1 + ... + n-1.
func buildSum(module *bytecode.Module, logger zerolog.Logger) error {
	m := bytecode.NewMethod(module, "Sum", bytecode.Int32Type, int32Param("n"))
	acc := bytecode.NewVariable("acc", bytecode.Int32Type)
	i := bytecode.NewVariable("i", bytecode.Int32Type)
	b := builder.New(m, builder.WithLogger(logger), builder.WithReturnVariable(acc))
	b.AddVariable(i)
	b.Emit(op.LdcI4, int32(0)).Emit(op.StLoc, acc)
	b.Emit(op.LdcI4, int32(0)).Emit(op.StLoc, i)
	b.PlaceLabel("loop")
	b.Emit(op.LdLoc, i).Emit(op.LdArg, 0).Emit(op.Clt, nil)
	b.Emit(op.BrFalse, b.ReturnPoint())
	b.Emit(op.LdLoc, acc).Emit(op.LdLoc, i).Emit(op.Add, nil).Emit(op.StLoc, acc)
	b.Emit(op.LdLoc, i).Emit(op.LdcI4, int32(1)).Emit(op.Add, nil).Emit(op.StLoc, i)
	b.Emit(op.Br, b.Label("loop"))
	b.EmitReturn()
	return b.Build()
}

// Guarded(flag) returns 1 when flag is true. Otherwise it throws and the
// catch handler returns -1.
func buildGuarded(module *bytecode.Module, logger zerolog.Logger) error {
	m := bytecode.NewMethod(module, "Guarded", bytecode.Int32Type, boolParam("flag"))
	result := bytecode.NewVariable("result", bytecode.Int32Type)
	ex := bytecode.NewVariable("ex", bytecode.ExceptionType)
	b := builder.New(m, builder.WithLogger(logger), builder.WithReturnVariable(result))
	b.AddExceptionVariable(ex)

	b.Emit(op.LdArg, 0).SetTryStart()
	b.IfElseTrue(constant(b, 1, result), func() []*bytecode.Instruction {
		return b.Sub().
			Emit(op.LdStr, "flag is false").
			Emit(op.NewObj, bytecode.InvalidOperationType).
			Emit(op.Throw, nil).
			Instructions()
	})
	b.Emit(op.Leave, b.ReturnPoint())
	b.Emit(op.StLoc, ex).SetTryEnd().SetHandleStart()
	b.Emit(op.LdcI4, int32(-1)).Emit(op.StLoc, result)
	b.Emit(op.Leave, b.ReturnPoint())
	b.Append(b.ReturnPoint()).SetHandleEnd()
	b.Emit(op.Ret, nil)
	return b.Build()
}

// Twice(n) calls Sum(n) and doubles the result.
func buildTwice(module *bytecode.Module, logger zerolog.Logger) error {
	sum, err := module.Method("Sum")
	if err != nil {
		return err
	}
	m := bytecode.NewMethod(module, "Twice", bytecode.Int32Type, int32Param("n"))
	b := builder.New(m, builder.WithLogger(logger))
	b.Emit(op.LdArg, 0).Emit(op.Call, sum)
	b.Emit(op.Dup, nil).Emit(op.Add, nil)
	b.EmitReturn()
	return b.Build()
}
