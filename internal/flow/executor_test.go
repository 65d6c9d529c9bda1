package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/engine"
)

// --- Test components ---

// recorder запоминает, какие узлы выполнялись.
type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

// source отдаёт value (по умолчанию "hi") как text.
type source struct {
	components.Base
	rec *recorder
}

func (c *source) Run(context.Context) (map[string]any, error) {
	v := c.InputString("value")
	c.rec.add("source:" + v)
	return map[string]any{"text": v}, nil
}

// sink возвращает полученный input.
type sink struct {
	components.Base
	rec *recorder
}

func (c *sink) Run(context.Context) (map[string]any, error) {
	v, _ := c.Input("input")
	c.rec.add(fmt.Sprintf("sink:%v", v))
	return map[string]any{"received": v, "user": c.Env().String(ContextUserID)}, nil
}

// streamer отдаёт три чанка.
type streamer struct {
	components.Base
	rec *recorder
}

func (c *streamer) Run(context.Context) (map[string]any, error) {
	c.rec.add("streamer:run")
	return map[string]any{"text": "abc"}, nil
}

func (c *streamer) SupportsStreaming() bool { return true }

func (c *streamer) Stream(_ context.Context, emit func(string) error) (map[string]any, error) {
	c.rec.add("streamer:stream")
	for _, chunk := range []string{"a", "b", "c"} {
		if err := emit(chunk); err != nil {
			return nil, err
		}
	}
	return map[string]any{"text": "abc"}, nil
}

// careless отдаёт чанки, игнорируя ошибки emit.
type careless struct {
	components.Base
	rec *recorder
}

func (c *careless) Run(context.Context) (map[string]any, error) {
	return map[string]any{"text": "abc"}, nil
}

func (c *careless) SupportsStreaming() bool { return true }

func (c *careless) Stream(_ context.Context, emit func(string) error) (map[string]any, error) {
	for _, chunk := range []string{"a", "b", "c"} {
		if err := emit(chunk); err != nil {
			c.rec.add("careless:" + err.Error())
		}
	}
	return map[string]any{"text": "abc"}, nil
}

// failing всегда падает на Run.
type failing struct {
	components.Base
}

func (c *failing) Run(context.Context) (map[string]any, error) {
	return nil, errors.New("component exploded")
}

// blocking ждёт завершения context.
type blocking struct {
	components.Base
}

func (c *blocking) Run(ctx context.Context) (map[string]any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func testRegistry(rec *recorder) *components.Registry {
	r := components.NewRegistry()

	r.Register("source", func() components.Component {
		return &source{rec: rec, Base: components.NewBase(components.Schema{
			Name:    "source",
			Inputs:  []components.PortSchema{{Name: "value", Default: "hi"}},
			Outputs: []components.PortSchema{{Name: "text"}},
		})}
	})
	r.Register("sink", func() components.Component {
		return &sink{rec: rec, Base: components.NewBase(components.Schema{
			Name:    "sink",
			Inputs:  []components.PortSchema{{Name: "input"}},
			Outputs: []components.PortSchema{{Name: "received"}, {Name: "user"}},
		})}
	})
	r.Register("streamer", func() components.Component {
		return &streamer{rec: rec, Base: components.NewBase(components.Schema{
			Name:    "streamer",
			Outputs: []components.PortSchema{{Name: "text"}},
		})}
	})
	r.Register("careless", func() components.Component {
		return &careless{rec: rec, Base: components.NewBase(components.Schema{
			Name:    "careless",
			Outputs: []components.PortSchema{{Name: "text"}},
		})}
	})
	r.Register("failing", func() components.Component {
		return &failing{Base: components.NewBase(components.Schema{Name: "failing"})}
	})
	r.Register("blocking", func() components.Component {
		return &blocking{Base: components.NewBase(components.Schema{Name: "blocking"})}
	})

	return r
}

// --- Helpers ---

func node(id, typ string, inputs map[string]any) domain.NodeDef {
	return domain.NodeDef{ID: id, Type: typ, Data: domain.NodeData{Inputs: inputs}}
}

func edge(id, source, sourceHandle, target, targetHandle string) domain.EdgeDef {
	return domain.EdgeDef{
		ID:           id,
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
}

func newExecutor(def domain.FlowDefinition, rec *recorder) *Executor {
	return New(def, Config{
		Registry: testRegistry(rec),
		Context:  map[string]any{ContextUserID: "user-1"},
	})
}

func collect(seq func(func(Event) bool)) []Event {
	var events []Event
	for ev := range seq {
		events = append(events, ev)
	}
	return events
}

// --- Scenarios ---

func TestExecute_LinearWiring(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "source", nil), node("B", "sink", nil)},
		Edges: []domain.EdgeDef{edge("e1", "A", "text", "B", "input")},
	}

	exec := newExecutor(def, rec)
	results, err := exec.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"text": "hi"}, results["A"])
	assert.Equal(t, "hi", results["B"]["received"])
	assert.Equal(t, "user-1", results["B"]["user"])
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status())
	assert.Equal(t, []string{"source:hi", "sink:hi"}, rec.list())
}

func TestExecute_IndependentNodesKeepInsertionOrder(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{
			node("n3", "source", map[string]any{"value": "3"}),
			node("n1", "source", map[string]any{"value": "1"}),
			node("n2", "source", map[string]any{"value": "2"}),
		},
	}

	exec := newExecutor(def, rec)
	results, err := exec.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"n3", "n1", "n2"}, exec.Order())
	assert.Equal(t, []string{"source:3", "source:1", "source:2"}, rec.list())
	assert.Len(t, results, 3)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status())
}

func TestExecute_Cycle(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "sink", nil), node("B", "sink", nil)},
		Edges: []domain.EdgeDef{
			edge("e1", "A", "received", "B", "input"),
			edge("e2", "B", "received", "A", "input"),
		},
	}

	exec := newExecutor(def, rec)
	results, err := exec.Execute(context.Background())

	assert.ErrorIs(t, err, engine.ErrCyclicDependency)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
	assert.Empty(t, results)
	assert.Empty(t, rec.list())
	assert.Empty(t, exec.Order())
}

func TestExecute_UnknownComponent(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{
			node("A", "source", nil),
			node("X", "does_not_exist", nil),
			node("C", "sink", nil),
		},
		Edges: []domain.EdgeDef{
			edge("e1", "A", "text", "X", "input"),
			edge("e2", "X", "out", "C", "input"),
		},
	}

	exec := newExecutor(def, rec)
	_, err := exec.Execute(context.Background())

	assert.ErrorIs(t, err, components.ErrUnknownComponent)

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "X", nodeErr.NodeID)
	assert.Equal(t, "does_not_exist", nodeErr.Type)

	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
	assert.Empty(t, rec.list(), "no node may run when a type is unknown")
}

func TestExecuteStream_Events(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("s", "streamer", nil), node("t", "sink", nil)},
		Edges: []domain.EdgeDef{edge("e1", "s", "text", "t", "input")},
	}

	exec := newExecutor(def, rec)
	events := collect(exec.ExecuteStream(context.Background()))

	tOutputs := map[string]any{"received": "abc", "user": "user-1"}
	want := []Event{
		{Type: EventToken, NodeID: "s", Data: "a"},
		{Type: EventToken, NodeID: "s", Data: "b"},
		{Type: EventToken, NodeID: "s", Data: "c"},
		{Type: EventNodeComplete, NodeID: "s", Data: map[string]any{"text": "abc"}},
		{Type: EventNodeComplete, NodeID: "t", Data: tOutputs},
		{Type: EventFlowComplete, Data: map[string]map[string]any{
			"s": {"text": "abc"},
			"t": tOutputs,
		}},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status())
	assert.Equal(t, []string{"streamer:stream", "sink:abc"}, rec.list())
}

// --- Failure handling ---

func TestExecute_BulkUsesRunForStreamingComponents(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{Nodes: []domain.NodeDef{node("s", "streamer", nil)}}

	_, err := newExecutor(def, rec).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"streamer:run"}, rec.list())
}

func TestExecute_FirstFailureAborts(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{
			node("A", "source", nil),
			node("F", "failing", nil),
			node("C", "sink", nil),
		},
	}

	exec := newExecutor(def, rec)
	results, err := exec.Execute(context.Background())

	var runErr *components.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Contains(t, err.Error(), "component exploded")

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "F", nodeErr.NodeID)

	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
	assert.Contains(t, results, "A", "earlier outputs stay recorded")
	assert.NotContains(t, results, "C")
	assert.Equal(t, []string{"source:hi"}, rec.list())

	record := exec.Execution()
	assert.Equal(t, domain.ExecutionStatusFailed, record.Status)
	assert.Contains(t, record.Error, "component exploded")
	assert.NotNil(t, record.FinishedAt)
}

func TestExecuteStream_ErrorIsTerminal(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "source", nil), node("F", "failing", nil), node("C", "sink", nil)},
	}

	events := collect(newExecutor(def, rec).ExecuteStream(context.Background()))

	require.Len(t, events, 2)
	assert.Equal(t, EventNodeComplete, events[0].Type)
	assert.Equal(t, EventError, events[1].Type)
	assert.Contains(t, events[1].Error, "component exploded")
}

func TestExecute_PreflightRejectsUndeclaredStaticInput(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{
			node("A", "source", nil),
			node("B", "sink", map[string]any{"bogus": 1}),
		},
	}

	exec := newExecutor(def, rec)
	_, err := exec.Execute(context.Background())

	var schemaErr *components.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "bogus", schemaErr.Input)
	assert.ErrorIs(t, err, components.ErrUnknownInput)
	assert.Empty(t, rec.list())
}

func TestExecute_DanglingEdge(t *testing.T) {
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "source", nil)},
		Edges: []domain.EdgeDef{edge("e1", "A", "text", "ghost", "input")},
	}

	exec := newExecutor(def, &recorder{})
	_, err := exec.Execute(context.Background())

	var vErr *engine.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, err, engine.ErrDanglingEdge)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
}

func TestExecute_StaticInputWinsOverEdge(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{
			node("A", "source", nil),
			node("B", "sink", map[string]any{"input": "static"}),
		},
		Edges: []domain.EdgeDef{edge("e1", "A", "text", "B", "input")},
	}

	results, err := newExecutor(def, rec).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static", results["B"]["received"])
}

func TestExecute_UnmatchedHandleIsSilent(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "source", nil), node("B", "sink", nil)},
		Edges: []domain.EdgeDef{edge("e1", "A", "no_such_output", "B", "input")},
	}

	results, err := newExecutor(def, rec).Execute(context.Background())
	require.NoError(t, err)
	assert.Nil(t, results["B"]["received"])
}

func TestExecute_EmptyFlow(t *testing.T) {
	exec := newExecutor(domain.FlowDefinition{}, &recorder{})

	results, err := exec.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status())
}

// --- Lifecycle ---

func TestExecutor_SingleUse(t *testing.T) {
	def := domain.FlowDefinition{Nodes: []domain.NodeDef{node("A", "source", nil)}}
	exec := newExecutor(def, &recorder{})

	_, err := exec.Execute(context.Background())
	require.NoError(t, err)

	_, err = exec.Execute(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status(), "second call must not change status")

	events := collect(exec.ExecuteStream(context.Background()))
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, ErrAlreadyStarted.Error(), events[0].Error)
}

func TestExecuteStream_ConsumerBreakMarksFailed(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("s", "streamer", nil), node("t", "sink", nil)},
		Edges: []domain.EdgeDef{edge("e1", "s", "text", "t", "input")},
	}

	exec := newExecutor(def, rec)
	count := 0
	for range exec.ExecuteStream(context.Background()) {
		count++
		break
	}

	assert.Equal(t, 1, count)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
	assert.ErrorIs(t, exec.Err(), ErrStreamAborted)
	assert.Equal(t, []string{"streamer:stream"}, rec.list(), "downstream nodes must not run")
}

func TestExecuteStream_EmitAfterConsumerBreak(t *testing.T) {
	rec := &recorder{}
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("s", "careless", nil), node("t", "sink", nil)},
		Edges: []domain.EdgeDef{edge("e1", "s", "text", "t", "input")},
	}

	exec := newExecutor(def, rec)
	var events []Event
	require.NotPanics(t, func() {
		for event := range exec.ExecuteStream(context.Background()) {
			events = append(events, event)
			break
		}
	})

	require.Len(t, events, 1)
	assert.Equal(t, Event{Type: EventToken, NodeID: "s", Data: "a"}, events[0])
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
	assert.ErrorIs(t, exec.Err(), ErrStreamAborted)

	abort := "careless:" + ErrStreamAborted.Error()
	assert.Equal(t, []string{abort, abort, abort}, rec.list(), "every chunk after the break is refused, sink never runs")
}

func TestExecute_Timeout(t *testing.T) {
	def := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "blocking", nil), node("B", "source", nil)},
	}
	rec := &recorder{}
	exec := New(def, Config{Registry: testRegistry(rec), Timeout: 20 * time.Millisecond})

	_, err := exec.Execute(context.Background())

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
	assert.Empty(t, rec.list())
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	def := domain.FlowDefinition{Nodes: []domain.NodeDef{node("A", "source", nil)}}
	exec := newExecutor(def, &recorder{})

	_, err := exec.Execute(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status())
}

func TestExecutor_ExecutionRecord(t *testing.T) {
	def := domain.FlowDefinition{Nodes: []domain.NodeDef{node("A", "source", nil)}}
	exec := newExecutor(def, &recorder{})

	assert.Equal(t, domain.ExecutionStatusPending, exec.Status())

	_, err := exec.Execute(context.Background())
	require.NoError(t, err)

	record := exec.Execution()
	assert.Equal(t, exec.ExecutionID(), record.ID)
	assert.Equal(t, domain.ExecutionStatusCompleted, record.Status)
	assert.NotNil(t, record.StartedAt)
	assert.NotNil(t, record.FinishedAt)
	assert.Equal(t, map[string]any{"text": "hi"}, record.Results["A"])
}

func TestCheck(t *testing.T) {
	registry := testRegistry(&recorder{})

	ok := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "source", nil), node("B", "sink", nil)},
		Edges: []domain.EdgeDef{edge("e1", "A", "text", "B", "input")},
	}
	assert.NoError(t, Check(ok, registry))

	unknown := domain.FlowDefinition{Nodes: []domain.NodeDef{node("X", "nope", nil)}}
	assert.ErrorIs(t, Check(unknown, registry), components.ErrUnknownComponent)

	badInput := domain.FlowDefinition{Nodes: []domain.NodeDef{node("A", "source", map[string]any{"bogus": 1})}}
	assert.ErrorIs(t, Check(badInput, registry), components.ErrUnknownInput)

	cycle := domain.FlowDefinition{
		Nodes: []domain.NodeDef{node("A", "sink", nil), node("B", "sink", nil)},
		Edges: []domain.EdgeDef{
			edge("e1", "A", "received", "B", "input"),
			edge("e2", "B", "received", "A", "input"),
		},
	}
	assert.ErrorIs(t, Check(cycle, registry), engine.ErrCyclicDependency)
}
