package vm

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/ilweave/bytecode"
)

// TestObserver is a test observer that records events.
type TestObserver struct {
	NoOpObserver
	config  *ObserverConfig
	Steps   []StepEvent
	Calls   []CallEvent
	Returns []ReturnEvent
	haltAt  int
}

func (o *TestObserver) Config() ObserverConfig {
	if o.config != nil {
		return *o.config
	}
	return o.NoOpObserver.Config()
}

func (o *TestObserver) OnStep(event StepEvent) bool {
	o.Steps = append(o.Steps, event)
	return o.haltAt == 0 || len(o.Steps) < o.haltAt
}

func (o *TestObserver) OnCall(event CallEvent) bool {
	o.Calls = append(o.Calls, event)
	return true
}

func (o *TestObserver) OnReturn(event ReturnEvent) bool {
	o.Returns = append(o.Returns, event)
	return true
}

func TestObserverOnStep(t *testing.T) {
	m := newAdd(bytecode.NewModule("app"))
	observer := &TestObserver{}
	_, err := New(WithObserver(observer)).Call(context.Background(), m, 1, 2)
	require.NoError(t, err)

	require.Len(t, observer.Steps, 4)
	names := make([]string, len(observer.Steps))
	for i, step := range observer.Steps {
		names[i] = step.OpcodeName
		require.Equal(t, i, step.IP)
		require.Equal(t, "app::Add", step.Method)
		require.Equal(t, 1, step.FrameDepth)
	}
	require.Equal(t, []string{"ldarg", "ldarg", "add", "ret"}, names)
	require.Equal(t, 2, observer.Steps[2].StackDepth)
}

func TestObserverOnCallAndReturn(t *testing.T) {
	m := newFactorial(bytecode.NewModule("app"))
	cfg := NewObserverConfig(StepNone)
	observer := &TestObserver{config: &cfg}
	result, err := New(WithObserver(observer)).Call(context.Background(), m, 3)
	require.NoError(t, err)
	require.Equal(t, int32(6), result)

	require.Empty(t, observer.Steps)
	require.Len(t, observer.Calls, 3)
	require.Len(t, observer.Returns, 3)
	require.Equal(t, CallEvent{Method: "app::Fact", ArgCount: 1, FrameDepth: 3}, observer.Calls[2])
	require.Equal(t, ReturnEvent{Method: "app::Fact", FrameDepth: 0}, observer.Returns[2])
}

func TestObserverSampled(t *testing.T) {
	m := newFactorial(bytecode.NewModule("app"))
	cfg := NewObserverConfig(StepSampled)
	cfg.SampleInterval = 0
	require.Equal(t, 1, NormalizeConfig(cfg).SampleInterval)

	cfg.SampleInterval = 5
	observer := &TestObserver{config: &cfg}
	machine := New(WithObserver(observer))
	_, err := machine.Call(context.Background(), m, 4)
	require.NoError(t, err)
	require.Len(t, observer.Steps, int(machine.Steps()/5))
}

func TestObserverHalts(t *testing.T) {
	m := newAdd(nil)
	observer := &TestObserver{haltAt: 2}
	_, err := New(WithObserver(observer)).Call(context.Background(), m, 1, 2)
	require.ErrorIs(t, err, ErrHalted)
	require.Len(t, observer.Steps, 2)
}

func TestTraceObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	m := newAdd(bytecode.NewModule("app"))

	_, err := New(WithObserver(NewTraceObserver(logger, StepAll))).Call(context.Background(), m, 1, 2)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"message":"call"`)
	require.Contains(t, out, `"op":"add"`)
	require.Contains(t, out, `"message":"return"`)
	require.Equal(t, 6, bytes.Count(buf.Bytes(), []byte("\n")))
}
