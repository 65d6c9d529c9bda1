package flow

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/engine"
	"github.com/shaiso/Langweave/internal/telemetry"
)

// Config — конфигурация Executor.
type Config struct {
	// Registry — реестр компонентов (опционально; если nil — DefaultRegistry()).
	Registry *components.Registry

	// Context — контекст выполнения, доступный компонентам только на чтение.
	// Обычно собирается через BuildContext.
	Context map[string]any

	// ExecutionID — ID выполнения (опционально; если пустой — генерируется).
	ExecutionID uuid.UUID

	// FlowID и UserID попадают в запись выполнения и в логи.
	FlowID uuid.UUID
	UserID uuid.UUID

	// Timeout — ограничение на всё выполнение (опционально).
	Timeout time.Duration

	// Logger
	Logger *slog.Logger
}

// Executor выполняет один flow один раз.
//
// Executor:
//   - Строит граф из определения flow
//   - Проверяет типы узлов и статические входы по схемам компонентов
//   - Вычисляет топологический порядок
//   - Последовательно выполняет узлы, передавая выходы по рёбрам
//   - Ведёт статус pending → running → completed/failed
//
// Первая ошибка узла прерывает выполнение. Выходы уже выполненных узлов
// остаются в результатах, но при статусе failed считаются ненадёжными.
//
// Executor одноразовый: повторный запуск возвращает ErrAlreadyStarted.
type Executor struct {
	def      domain.FlowDefinition
	registry *components.Registry
	env      *components.Env
	timeout  time.Duration
	logger   *slog.Logger

	graph *engine.Graph
	order []string

	// execution — запись выполнения, изменяется только под mu.
	execution *domain.Execution
	err       error
	started   bool
	mu        sync.RWMutex
}

// New создаёт Executor для определения flow.
func New(def domain.FlowDefinition, cfg Config) *Executor {
	registry := cfg.Registry
	if registry == nil {
		registry = components.DefaultRegistry()
	}

	execution := domain.NewExecution(cfg.FlowID, cfg.UserID)
	if cfg.ExecutionID != uuid.Nil {
		execution.ID = cfg.ExecutionID
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = telemetry.WithExecutionID(logger, execution.ID.String())
	if cfg.FlowID != uuid.Nil {
		logger = telemetry.WithFlowID(logger, cfg.FlowID.String())
	}

	return &Executor{
		def:       def,
		registry:  registry,
		env:       components.NewEnv(cfg.Context),
		timeout:   cfg.Timeout,
		logger:    logger,
		execution: execution,
	}
}

// ExecutionID возвращает ID выполнения.
func (e *Executor) ExecutionID() uuid.UUID {
	return e.execution.ID
}

// Status возвращает текущий статус.
func (e *Executor) Status() domain.ExecutionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.execution.Status
}

// Err возвращает ошибку, с которой завершилось выполнение.
func (e *Executor) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// Results возвращает копию результатов: nodeID → outputs.
func (e *Executor) Results() map[string]map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.execution.Results)
}

// Order возвращает топологический порядок узлов.
// Пустой до начала выполнения или при ошибке построения графа.
func (e *Executor) Order() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.order)
}

// Execution возвращает копию записи выполнения.
func (e *Executor) Execution() *domain.Execution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp := *e.execution
	cp.Results = maps.Clone(e.execution.Results)
	return &cp
}

// Execute выполняет flow целиком и возвращает результаты всех узлов.
//
// При ошибке возвращает частичные результаты и ошибку:
//   - engine.ValidationError — некорректное определение flow
//   - engine.ErrCyclicDependency — граф содержит цикл
//   - NodeError — ошибка узла (в т.ч. ErrUnknownComponent на этапе проверки)
//   - ErrTimeout — истёк дедлайн
func (e *Executor) Execute(ctx context.Context) (map[string]map[string]any, error) {
	if err := e.start(); err != nil {
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.prepare(ctx); err != nil {
		return e.finish(err)
	}

	for _, nodeID := range e.order {
		if err := ctx.Err(); err != nil {
			return e.finish(contextError(err))
		}
		if _, err := e.runNode(ctx, nodeID, nil); err != nil {
			return e.finish(e.nodeFailure(ctx, err))
		}
	}

	return e.finish(nil)
}

// ExecuteStream выполняет flow и отдаёт события по мере выполнения.
//
// Последовательность событий:
//   - token — на каждый чанк streaming компонента
//   - node_complete — после каждого узла
//   - flow_complete или error — ровно одно терминальное событие
//
// Если потребитель прекращает чтение, выполнение прерывается со статусом
// failed и ошибкой ErrStreamAborted; терминальное событие в этом случае
// не отправляется.
func (e *Executor) ExecuteStream(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if err := e.start(); err != nil {
			yield(errorEvent(err))
			return
		}

		ctx, cancel := e.withTimeout(ctx)
		defer cancel()

		if err := e.prepare(ctx); err != nil {
			_, err = e.finish(err)
			yield(errorEvent(err))
			return
		}

		for _, nodeID := range e.order {
			if err := ctx.Err(); err != nil {
				_, err = e.finish(contextError(err))
				yield(errorEvent(err))
				return
			}

			aborted := false
			emit := func(chunk string) error {
				// После отказа потребителя yield вызывать нельзя,
				// даже если компонент проигнорировал ошибку emit.
				if aborted {
					return ErrStreamAborted
				}
				telemetry.StreamTokens.Inc()
				if !yield(Event{Type: EventToken, NodeID: nodeID, Data: chunk}) {
					aborted = true
					return ErrStreamAborted
				}
				return nil
			}

			outputs, err := e.runNode(ctx, nodeID, emit)
			if aborted {
				e.finish(ErrStreamAborted)
				return
			}
			if err != nil {
				_, err = e.finish(e.nodeFailure(ctx, err))
				yield(errorEvent(err))
				return
			}

			if !yield(Event{Type: EventNodeComplete, NodeID: nodeID, Data: outputs}) {
				e.finish(ErrStreamAborted)
				return
			}
		}

		results, _ := e.finish(nil)
		yield(Event{Type: EventFlowComplete, Data: results})
	}
}

// start переводит executor в running.
func (e *Executor) start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	e.execution.MarkRunning()

	e.logger.Info("flow execution started", "nodes", len(e.def.Nodes), "edges", len(e.def.Edges))
	return nil
}

// prepare строит граф, проверяет узлы по схемам и вычисляет порядок.
func (e *Executor) prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return contextError(err)
	}

	g, err := engine.Build(e.def)
	if err != nil {
		return err
	}

	if err := preflight(e.registry, g); err != nil {
		return err
	}

	order, err := engine.TopologicalSort(g)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.graph = g
	e.order = order
	e.mu.Unlock()

	e.logger.Debug("execution order computed", "order", order)
	return nil
}

// Check проверяет flow без выполнения: структуру графа, отсутствие циклов,
// типы узлов и статические входы. Возвращает те же ошибки, что и Execute
// до запуска первого узла.
func Check(def domain.FlowDefinition, registry *components.Registry) error {
	if registry == nil {
		registry = components.DefaultRegistry()
	}
	g, err := engine.Build(def)
	if err != nil {
		return err
	}
	if err := preflight(registry, g); err != nil {
		return err
	}
	_, err = engine.TopologicalSort(g)
	return err
}

// preflight проверяет, что тип каждого узла зарегистрирован,
// а статические входы объявлены в схеме компонента.
// Ошибки конфигурации обнаруживаются до выполнения первого узла.
func preflight(registry *components.Registry, g *engine.Graph) error {
	for _, node := range g.Nodes() {
		schema, err := registry.Schema(node.Type)
		if err != nil {
			return &NodeError{NodeID: node.ID, Type: node.Type, Err: err}
		}

		for _, key := range slices.Sorted(maps.Keys(node.Data.Inputs)) {
			if !schema.HasInput(key) {
				return &NodeError{
					NodeID: node.ID,
					Type:   node.Type,
					Err:    &components.SchemaError{Component: node.Type, Input: key},
				}
			}
		}
	}
	return nil
}

// runNode выполняет один узел и записывает его выходы.
// При emit != nil streaming компонент выполняется через Stream.
func (e *Executor) runNode(ctx context.Context, nodeID string, emit func(string) error) (map[string]any, error) {
	node, _ := e.graph.Node(nodeID)
	logger := telemetry.WithNodeID(e.logger, node.ID, node.Type)
	ctx = telemetry.WithLogger(ctx, logger)

	e.mu.RLock()
	inputs := engine.ResolveInputs(ctx, e.graph, nodeID, e.execution.Results)
	e.mu.RUnlock()

	comp, err := e.registry.New(node.Type)
	if err != nil {
		return nil, &NodeError{NodeID: node.ID, Type: node.Type, Err: err}
	}

	streaming := emit != nil && comp.SupportsStreaming()
	logger.Info("node started", "streaming", streaming)

	start := time.Now()
	var outputs map[string]any
	if streaming {
		outputs, err = components.ExecuteStream(ctx, comp, inputs, e.env, emit)
	} else {
		outputs, err = components.Execute(ctx, comp, inputs, e.env)
	}
	duration := time.Since(start)
	telemetry.NodeDuration.WithLabelValues(node.Type).Observe(duration.Seconds())

	if err != nil {
		telemetry.NodeFailures.WithLabelValues(node.Type).Inc()
		logger.Error("node failed", "duration", duration, "error", err)
		return nil, &NodeError{NodeID: node.ID, Type: node.Type, Err: err}
	}

	e.mu.Lock()
	e.execution.RecordNode(nodeID, outputs)
	e.mu.Unlock()

	logger.Info("node completed", "duration", duration, "outputs", len(outputs))
	return outputs, nil
}

// finish переводит executor в финальный статус.
// Возвращает копию результатов и переданную ошибку.
func (e *Executor) finish(err error) (map[string]map[string]any, error) {
	e.mu.Lock()
	if err == nil {
		e.execution.MarkCompleted()
	} else {
		e.err = err
		e.execution.MarkFailed(err.Error())
	}
	status := e.execution.Status
	duration := e.execution.Duration()
	results := maps.Clone(e.execution.Results)
	e.mu.Unlock()

	telemetry.FlowExecutions.WithLabelValues(status.String()).Inc()

	if err != nil {
		e.logger.Error("flow execution failed", "duration", duration, "error", err)
	} else {
		e.logger.Info("flow execution completed", "duration", duration, "nodes", len(results))
	}

	return results, err
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// nodeFailure добавляет к ошибке узла ErrTimeout/ErrCancelled,
// если узел упал из-за завершения context.
func (e *Executor) nodeFailure(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return err
}

// contextError переводит ошибку context в ошибку выполнения.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
