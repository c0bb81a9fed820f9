package vm

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/ilweave/op"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	StepAll StepMode = iota

	// StepNone never calls OnStep.
	// Use for: observers that only need Call/Return events.
	StepNone

	// StepSampled calls OnStep every N instructions.
	StepSampled
)

// ObserverConfig specifies what events an observer wants to receive.
// Use NewObserverConfig() to create configs with safe defaults.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Values <= 0 are treated as 1.
	SampleInterval int

	// ObserveCalls enables OnCall callbacks.
	ObserveCalls bool

	// ObserveReturns enables OnReturn callbacks.
	ObserveReturns bool
}

// NewObserverConfig creates a config with safe defaults.
// ObserveCalls and ObserveReturns default to true.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveCalls:   true,
		ObserveReturns: true,
	}
}

// NormalizeConfig validates and clamps config values.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer receives VM execution events. Implementations can embed
// NoOpObserver for the methods they don't need.
//
// Observer methods are called synchronously during VM execution.
type Observer interface {
	// Config returns the observer's configuration.
	// Called once when the observer is attached to the VM.
	Config() ObserverConfig

	// OnStep is called based on the StepMode in the observer's config.
	// Returns false to halt execution immediately.
	OnStep(event StepEvent) bool

	// OnCall is called when a method is invoked (if ObserveCalls is true).
	// Returns false to halt execution immediately.
	OnCall(event CallEvent) bool

	// OnReturn is called when a method returns (if ObserveReturns is true).
	// Returns false to halt execution immediately.
	OnReturn(event ReturnEvent) bool
}

// StepEvent contains information about a single instruction step.
type StepEvent struct {
	// IP is the index of the instruction in the method body.
	IP int

	Opcode     op.Code
	OpcodeName string

	// Method is the full name of the executing method.
	Method string

	// StackDepth is the current depth of the evaluation stack.
	StackDepth int

	// FrameDepth is the current depth of the call stack.
	FrameDepth int
}

// CallEvent contains information about a method call.
type CallEvent struct {
	Method     string
	ArgCount   int
	FrameDepth int
}

// ReturnEvent contains information about a method return.
type ReturnEvent struct {
	Method string

	// FrameDepth is the call stack depth after returning.
	FrameDepth int
}

// NoOpObserver is an Observer implementation that does nothing.
//
// NoOpObserver uses StepAll mode with ObserveCalls and ObserveReturns
// enabled. Override Config() in your observer to use a different mode.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }

var _ Observer = NoOpObserver{}

// TraceObserver writes every event to a zerolog logger at debug level.
type TraceObserver struct {
	logger zerolog.Logger
	config ObserverConfig
}

// NewTraceObserver returns an observer that logs events to logger using
// the given step mode.
func NewTraceObserver(logger zerolog.Logger, mode StepMode) *TraceObserver {
	return &TraceObserver{logger: logger, config: NewObserverConfig(mode)}
}

func (o *TraceObserver) Config() ObserverConfig {
	return o.config
}

func (o *TraceObserver) OnStep(event StepEvent) bool {
	o.logger.Debug().
		Str("method", event.Method).
		Int("ip", event.IP).
		Str("op", event.OpcodeName).
		Int("stack", event.StackDepth).
		Int("depth", event.FrameDepth).
		Msg("step")
	return true
}

func (o *TraceObserver) OnCall(event CallEvent) bool {
	o.logger.Debug().
		Str("method", event.Method).
		Int("args", event.ArgCount).
		Int("depth", event.FrameDepth).
		Msg("call")
	return true
}

func (o *TraceObserver) OnReturn(event ReturnEvent) bool {
	o.logger.Debug().
		Str("method", event.Method).
		Int("depth", event.FrameDepth).
		Msg("return")
	return true
}
